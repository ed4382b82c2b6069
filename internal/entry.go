// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/skaldra/notedown/internal/api"
	"github.com/skaldra/notedown/internal/graph"
	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/noteservice"
	"github.com/skaldra/notedown/internal/sse"
	"github.com/skaldra/notedown/internal/storage"
	"github.com/skaldra/notedown/internal/vaultindex"
	"github.com/skaldra/notedown/internal/watch"
)

// NewCodec builds the name codec from the vault configuration.
func (c *VaultConfig) NewCodec() *notename.Codec {
	exts := make([]string, 0, len(c.Extensions))
	for _, e := range c.Extensions {
		exts = append(exts, "."+e)
	}
	return &notename.Codec{
		Separator:  c.Separator,
		Extensions: exts,
		Extension:  c.Extension,
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	codec := cfg.Vault.NewCodec()

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path, codec)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite link graph.
	db, err := graph.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init graph: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := graph.Sync(db, store, codec, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker()

	cache := vaultindex.NewCache(codec, logger)

	svc := noteservice.NewService(noteservice.Params{
		Store:                 store,
		DB:                    db,
		Cache:                 cache,
		Codec:                 codec,
		Template:              cfg.Vault.Template,
		HomeSentinel:          cfg.Vault.HomeSentinel,
		Encoding:              cfg.Vault.Encoding,
		CaseInsensitiveRename: cfg.Vault.CaseInsensitiveRename,
		JournalTitleFormat:    cfg.Vault.JournalTitleFormat,
		Logger:                logger,
	})
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return watch.Watch(gCtx, db, store, cache, codec, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
