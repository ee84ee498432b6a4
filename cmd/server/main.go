package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/carpetgrid/internal/catalog"
	_ "github.com/JonMunkholm/carpetgrid/internal/catalog/pages" // Register built-in pages
	"github.com/JonMunkholm/carpetgrid/internal/config"
	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/logging"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
	"github.com/JonMunkholm/carpetgrid/internal/seed"
	"github.com/JonMunkholm/carpetgrid/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"page_size", cfg.Grid.PageSize,
		"seed_database", cfg.Seed.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Page definitions from disk replace built-in pages with the same key
	n, err := catalog.Install(cfg.Grid.PagesDir)
	if err != nil {
		slog.Error("failed to load page definitions", "dir", cfg.Grid.PagesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("pages registered", "count", catalog.Count(), "from_dir", n, "groups", len(catalog.Groups()))

	opts, err := core.OptionsFromConfig(cfg)
	if err != nil {
		slog.Error("invalid grid configuration", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace)
	opts.Metrics = collector

	ctx := context.Background()

	if cfg.Seed.Enabled() {
		source, err := connectSeed(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to seed database", "error", err)
			os.Exit(1)
		}
		defer source.Close()
		opts.Seeds = source
	}

	service, err := core.NewService(ctx, opts)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	defer service.Close()

	server := web.NewServer(service, web.Options{Config: cfg, Metrics: collector})

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartAuditPruner(jobCtx, core.PruneConfig{
		Retention:     cfg.Audit.Retention,
		CheckInterval: cfg.Audit.PruneInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		return
	}
	slog.Info("server stopped")
}

// connectSeed opens the Postgres seed source for the configured tables.
func connectSeed(ctx context.Context, cfg *config.Config) (*seed.Postgres, error) {
	tables, err := seed.ParseTables(strings.Join(cfg.Seed.Tables, ","))
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Seed.Timeout)
	defer cancel()

	source, err := seed.Connect(connectCtx, seed.Config{
		URL:      cfg.Seed.DatabaseURL,
		Tables:   tables,
		MaxRows:  cfg.Grid.MaxRows,
		MaxConns: cfg.Seed.MaxConns,
		Timeout:  cfg.Seed.Timeout,
	})
	if err != nil {
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Seed.DatabaseURL); err == nil {
		slog.Info("connected to seed database", "name", strings.TrimPrefix(u.Path, "/"), "tables", len(tables))
	}
	return source, nil
}
