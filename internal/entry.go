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

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/watch"
)

// Run modes.
const (
	ModeSync  = "sync"
	ModeServe = "serve"
	ModeMCP   = "mcp"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeSync}

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
		slog.String("mode", app.mode),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("remote_url", cfg.Remote.BaseURL),
		slog.String("collection", cfg.Remote.CollectionID),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	svc, fs, closeFn, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	switch app.mode {
	case ModeSync:
		return runSync(ctx, svc, app.dryRun)
	case ModeServe:
		return runServe(ctx, cfg, svc, logger)
	case ModeMCP:
		srv := mcpserver.New(svc, fs, svc.history)
		return srv.ServeStdio()
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

// runSync executes one pass and exits non-zero when documents failed.
func runSync(ctx context.Context, svc *syncService, dryRun bool) error {
	summary, err := svc.Sync(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if len(summary.Failures) > 0 {
		return fmt.Errorf("sync: %d documents failed", len(summary.Failures))
	}
	return nil
}

// runServe runs the long-lived daemon: the control API plus a vault watcher
// that triggers a pass after each settled burst of edits.
func runServe(ctx context.Context, cfg *Config, svc *syncService, logger *slog.Logger) error {
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

	r.Mount("/api", api.NewRouter(svc, svc.history, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	syncPass := func(reason string) {
		if _, err := svc.Sync(gCtx, false); err != nil && !errors.Is(err, apperr.ErrConflict) {
			logger.Error("sync failed",
				slog.String("trigger", reason),
				slog.String("error", err.Error()))
		}
	}

	// Start vault watcher; a pass already in progress absorbs the trigger.
	g.Go(func() error {
		return watch.Watch(gCtx, cfg.Vault.Path, cfg.Sync.Debounce, logger, func() {
			syncPass("watcher")
		})
	})

	// Periodic pass picks up remote-side edits the watcher cannot see.
	if cfg.Sync.Interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.Sync.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					syncPass("interval")
				}
			}
		})
	}

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
