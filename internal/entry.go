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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mannaz/internal/api"
	"github.com/starford/mannaz/internal/contactservice"
	"github.com/starford/mannaz/internal/index"
	"github.com/starford/mannaz/internal/pipeline"
	"github.com/starford/mannaz/internal/rotation"
	"github.com/starford/mannaz/internal/sse"
	"github.com/starford/mannaz/internal/storage"
	"github.com/starford/mannaz/internal/vision"
	"github.com/starford/mannaz/internal/watch"
)

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

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("vision_model", cfg.Vision.Model),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if cfg.Vision.APIKey == "" {
		logger.Warn("vision api key is empty; inbox images will not be processed")
	}

	// Ensure the vault and its working folders exist.
	for _, dir := range []string{"", cfg.Vault.Inbox, cfg.Vault.Contacts, cfg.Vault.Attachments} {
		if err := os.MkdirAll(filepath.Join(cfg.Vault.Path, filepath.FromSlash(dir)), 0o755); err != nil {
			return fmt.Errorf("create vault dir: %w", err)
		}
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Bring the index in line with notes edited while the daemon was down.
	if err := index.Sync(db, store, cfg.Vault.Contacts, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	visionClient := vision.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.Timeout())
	selector := rotation.NewSelector(visionClient, logger)

	pipe := pipeline.New(pipeline.Config{
		APIKey:            cfg.Vision.APIKey,
		DetectRotation:    cfg.Vision.DetectRotation,
		ContactsDir:       cfg.Vault.Contacts,
		AttachmentsDir:    cfg.Vault.Attachments,
		TrashOriginals:    cfg.Vault.TrashOriginals,
		KeepFailedReplies: cfg.Vision.KeepFailedReplies,
	}, store, db, selector, visionClient, broker.PublishPipelineEvent, logger)

	svc := contactservice.NewService(store, db, cfg.Vault.Inbox, cfg.Vault.Attachments)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Vault.Path, cfg.Vault.Attachments)

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

	g, gCtx := errgroup.WithContext(ctx)

	// Inbox watcher feeding the ingestion pipeline.
	watcher := watch.New(cfg.Vault.Path, cfg.Vault.Inbox, watch.DefaultSettle, func(ctx context.Context, relPath string) {
		// Failures are logged and published by the pipeline itself; one
		// bad image must not stop the watcher.
		_, _ = pipe.ProcessImage(ctx, relPath)
	}, logger)
	g.Go(func() error {
		return watcher.Run(gCtx)
	})

	// HTTP server.
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
