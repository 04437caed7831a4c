// Package embedding produces vector embeddings for notice text via cloud
// providers or a deterministic hash fallback.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/biolinker/grantindex/internal/config"
)

// ErrTimeout reports that an embedding request exceeded its deadline.
var ErrTimeout = errors.New("embedding request timed out")

// Provider identifies an embedding backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderHash   Provider = "hash"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Provider() Provider
	Close() error
}

// Select picks an embedder once at startup. With provider "auto" the first
// backend with a credential wins: OpenAI, then Gemini, then the hash
// fallback. The fallback carries no semantic meaning; selecting it emits a
// single structured warning so degraded search quality is visible in logs.
func Select(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("embedding provider %q requires OPENAI_API_KEY", cfg.Provider)
		}
		return NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxChars, cfg.Timeout()), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("embedding provider %q requires GEMINI_API_KEY", cfg.Provider)
		}
		return NewGeminiEmbedder(cfg.GeminiKey, cfg.GeminiModel, cfg.MaxChars, cfg.Timeout()), nil
	case "hash":
		return NewHashEmbedder(), nil
	case "auto", "":
		switch {
		case cfg.OpenAIKey != "":
			return NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxChars, cfg.Timeout()), nil
		case cfg.GeminiKey != "":
			return NewGeminiEmbedder(cfg.GeminiKey, cfg.GeminiModel, cfg.MaxChars, cfg.Timeout()), nil
		default:
			logger.Warn("no embedding credential configured, using deterministic hash embeddings; similarity quality will be degraded")
			return NewHashEmbedder(), nil
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: auto, openai, gemini, hash)", cfg.Provider)
	}
}
