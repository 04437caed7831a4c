// Package main is the grantindex CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/biolinker/grantindex/internal/config"
	"github.com/biolinker/grantindex/internal/index"
	"github.com/biolinker/grantindex/internal/models"
	"github.com/biolinker/grantindex/internal/server"
	"github.com/biolinker/grantindex/internal/store"
	"github.com/biolinker/grantindex/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/grantindex/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "match":
		runMatch()
	case "get":
		runGet()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("grantindex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// openStore loads config and builds the store shared by all subcommands.
func openStore(configPath string, debugFlag bool) (*store.Store, *config.Config, *zap.Logger) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))

	st, err := store.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	return st, cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	st, cfg, logger := openStore(*configPath, *debug)
	defer logger.Sync()
	defer st.Close()

	srv := server.NewServer(st, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("Server failed", zap.Error(err))
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Error("Shutdown error", zap.Error(err))
		}
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "JSON file with a notice object or array of notices")
	_ = fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Println("Usage: grantindex add -file notices.json")
		os.Exit(1)
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *file, err)
		os.Exit(1)
	}

	var notices []*models.Notice
	if err := json.Unmarshal(data, &notices); err != nil {
		var one models.Notice
		if err := json.Unmarshal(data, &one); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to parse %s: %v\n", *file, err)
			os.Exit(1)
		}
		notices = []*models.Notice{&one}
	}

	st, _, logger := openStore(*configPath, false)
	defer logger.Sync()
	defer st.Close()

	ids := st.AddNotices(context.Background(), notices)
	fmt.Printf("Stored %d of %d notices\n", len(ids), len(notices))
	for _, id := range ids {
		fmt.Println(" ", id)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 5, "number of results")
	source := fs.String("source", "", "restrict results to one notice source")
	outputJSON := fs.Bool("json", false, "print results as JSON")
	_ = fs.Parse(os.Args[2:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: grantindex search [flags] <query>")
		os.Exit(1)
	}

	st, _, logger := openStore(*configPath, false)
	defer logger.Sync()
	defer st.Close()

	var filter index.Filter
	if *source != "" {
		filter = index.Filter{"source": *source}
	}
	matches, err := st.SearchSimilar(context.Background(), query, *limit, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	printMatches(matches, *outputJSON)
}

func runMatch() {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 5, "number of results")
	keywords := fs.String("keywords", "", "comma-separated technology keywords")
	description := fs.String("description", "", "free-text technology description")
	_ = fs.Parse(os.Args[2:])

	if *keywords == "" && *description == "" {
		fmt.Println("Usage: grantindex match -keywords k1,k2 [-description text]")
		os.Exit(1)
	}

	profile := &models.Profile{TechDescription: *description}
	for _, k := range strings.Split(*keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			profile.TechKeywords = append(profile.TechKeywords, k)
		}
	}

	st, _, logger := openStore(*configPath, false)
	defer logger.Sync()
	defer st.Close()

	results, err := st.SearchByProfile(context.Background(), profile, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Match failed: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))
}

func runGet() {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: grantindex get <id>")
		os.Exit(1)
	}

	st, _, logger := openStore(*configPath, false)
	defer logger.Sync()
	defer st.Close()

	n, err := st.GetNotice(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Get failed: %v\n", err)
		os.Exit(1)
	}
	if n == nil {
		fmt.Println("Not found")
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(n, "", "  ")
	fmt.Println(string(out))
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: grantindex delete <id>")
		os.Exit(1)
	}

	st, _, logger := openStore(*configPath, false)
	defer logger.Sync()
	defer st.Close()

	if err := st.DeleteNotice(context.Background(), fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Deleted", fs.Arg(0))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	st, cfg, logger := openStore(*configPath, false)
	defer logger.Sync()
	defer st.Close()

	fmt.Printf("Notices:            %d\n", st.Count(context.Background()))
	fmt.Printf("Index backend:      %s\n", st.Backend())
	fmt.Printf("Embedding provider: %s\n", st.Provider())
	fmt.Printf("Persist dir:        %s\n", cfg.Storage.PersistDir)
}

func printMatches(matches []*models.Match, asJSON bool) {
	if asJSON {
		out, _ := json.MarshalIndent(matches, "", "  ")
		fmt.Println(string(out))
		return
	}
	if len(matches) == 0 {
		fmt.Println("No matches")
		return
	}
	for i, m := range matches {
		fmt.Printf("%d. [%.3f] %s (%s)\n", i+1, m.Score, m.Notice.Title, m.Notice.Source)
		if m.Notice.URL != "" {
			fmt.Printf("   %s\n", m.Notice.URL)
		}
		if snippet := utils.Truncate(strings.ReplaceAll(m.Notice.BodyText, "\n", " "), 120); snippet != "" {
			fmt.Printf("   %s\n", snippet)
		}
	}
}

func printUsage() {
	fmt.Print(`grantindex - semantic index for government grant notices

Usage:
  grantindex server [-config path] [-debug]      start the HTTP API server
  grantindex add -file notices.json              store notices from a JSON file
  grantindex search [flags] <query>              search notices by similarity
  grantindex match -keywords k1,k2 [...]         match notices to a tech profile
  grantindex get <id>                            print one stored notice
  grantindex delete <id>                         delete a stored notice
  grantindex status                              print store status
  grantindex version                             print version

Search flags:
  -limit n        number of results (default 5)
  -source name    restrict to one notice source
  -json           print results as JSON
`)
}
