// Package config provides configuration loading and structs for the grantindex server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the persistence directory and index backend selection.
// Backend is "auto" (sqlite when available, else memory), "sqlite", or "memory".
type StorageConfig struct {
	PersistDir string `yaml:"persist_dir"`
	Backend    string `yaml:"backend"`
}

// EmbeddingConfig holds embedding provider settings. API keys are never read
// from the YAML file; they come from the environment (optionally seeded from
// a .env file).
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // auto, openai, gemini, hash
	OpenAIModel    string `yaml:"openai_model"`
	GeminiModel    string `yaml:"gemini_model"`
	MaxChars       int    `yaml:"max_chars"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	OpenAIKey string `yaml:"-"`
	GeminiKey string `yaml:"-"`
}

// Timeout returns the embedding request timeout as a duration.
func (e *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// SearchConfig holds search limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and resolves embedding credentials from the environment.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.Storage.PersistDir = expandPath(cfg.Storage.PersistDir, filepath.Dir(path))
	loadCredentials(&cfg)

	return &cfg, nil
}

// Default returns a config with defaults applied and credentials resolved,
// for running without a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	loadCredentials(&cfg)
	return &cfg
}

// loadCredentials reads embedding API keys from the environment. A .env file
// in the working directory seeds the environment when present; a missing
// .env is not an error. Absence of both keys is a supported configuration
// (hash fallback embeddings).
func loadCredentials(cfg *Config) {
	_ = godotenv.Load()
	cfg.Embedding.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Embedding.GeminiKey = os.Getenv("GEMINI_API_KEY")
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
