// Package main is the Kensaku CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/search"
	"github.com/hyperjump/kensaku/internal/server"
	"github.com/hyperjump/kensaku/internal/store"
	"github.com/hyperjump/kensaku/internal/watcher"
	"github.com/hyperjump/kensaku/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kensaku/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	switch os.Args[1] {
	case "server":
		runServer()
	case "seed":
		runSeed()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kensaku %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: kensaku <command> [flags]

Commands:
  server    Run the search API server
  seed      Populate the entity database with sample data
  search    One-shot search against the local entity database
  status    Show index stats from a running server
  version   Print version
  help      Show this help
`)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	db, err := store.NewSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open entity database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	svc := search.New(db, logger,
		search.WithTTL(time.Duration(cfg.Search.TTLSeconds)*time.Second))
	defer func() { _ = svc.Close() }()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Storage.WatchDatabase {
		dbWatch := watcher.New(cfg.Storage.DatabasePath, svc, logger)
		if err := dbWatch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start database watcher", zap.Error(err))
		}
		defer dbWatch.Stop()
	}

	srv := server.NewServer(svc, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	db, err := store.NewSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open entity database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Seed(context.Background()); err != nil {
		fmt.Printf("Seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %s\n", cfg.Storage.DatabasePath)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	entityType := fs.String("type", "", "filter by entity type")
	platform := fs.String("platform", "", "filter by platform")
	category := fs.String("category", "", "filter by category")
	sortOrder := fs.String("sort", "relevance", "sort order: relevance, recent, popular")
	limit := fs.Int("limit", models.DefaultLimit, "results per page")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(os.Args[2:])

	queryText := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(queryText) == "" {
		fmt.Println("Usage: kensaku search [flags] <query>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := zap.NewNop()
	db, err := store.NewSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open entity database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	svc := search.New(db, logger)
	defer func() { _ = svc.Close() }()

	response, err := svc.Search(context.Background(), &models.SearchQuery{
		Query:    queryText,
		Type:     *entityType,
		Platform: *platform,
		Category: *category,
		Sort:     *sortOrder,
		Page:     *page,
		Limit:    *limit,
	})
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d results (%dms)\n", response.Meta.Total, response.Meta.Latency)
	for i, result := range response.Results {
		doc := result.Document
		fmt.Printf("%2d. [%s] %s  (score %.2f)\n", i+1, doc.EntityType, doc.Title, result.Score)
		if doc.Description != "" {
			fmt.Printf("    %s\n", utils.Truncate(doc.Description, 100))
		}
		fmt.Printf("    %s\n", doc.URL)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "server address")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*addr + "/api/v1/stats")
	if err != nil {
		fmt.Printf("Failed to reach server: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	var stats models.IndexStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		fmt.Printf("Failed to decode stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents:  %d\n", stats.Documents)
	fmt.Printf("indexing:   %v\n", stats.Indexing)
	if stats.LastBuilt > 0 {
		fmt.Printf("last built: %s\n", time.Unix(stats.LastBuilt, 0).Format(time.RFC3339))
	} else {
		fmt.Println("last built: never")
	}
}
