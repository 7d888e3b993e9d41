// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/answer"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/api"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/history"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/knowledge"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/llm"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/mcpserver"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/source"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/web"
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

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := io.Writer(os.Stdout)
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source_mode", cfg.Source.Mode),
		slog.String("model", cfg.Model.Name),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the document source.
	src, err := newSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	logger.Info("Document source ready", slog.String("source", src.String()))

	// Knowledge cache over the aggregation pipeline.
	agg := knowledge.NewAggregator(src, logger)
	cache := knowledge.NewCache(agg.Build, cfg.Knowledge.RefreshInterval.Std())

	// Model client.
	client, err := llm.New(llm.Config{
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Name,
		BaseURL: cfg.Model.BaseURL,
		Timeout: cfg.Model.Timeout.Std(),
	})
	if err != nil {
		return fmt.Errorf("init model client: %w", err)
	}

	// Exchange history.
	var hist history.Log
	if cfg.History.Path != "" {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		defer db.Close()
		hist = db
	}

	svc := answer.NewService(cache, client, hist, logger)

	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
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

	// API routes plus the embedded chat client.
	r.Mount("/", api.NewRouter(svc, hist, web.Handler()))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Warm the knowledge cache so the first question does not pay the
	// aggregation cost. Failures are not fatal; requests retry lazily.
	g.Go(func() error {
		doc, err := cache.Get(gCtx)
		if err != nil {
			logger.Warn("initial knowledge build failed", slog.String("error", err.Error()))
			return nil
		}
		logger.Info("Knowledge ready",
			slog.Int("files", doc.Files),
			slog.Int("failed", doc.Failed),
			slog.Int("bytes", len(doc.Text)))
		return nil
	})

	// Watch the local folder and invalidate the cache on changes.
	if cfg.Source.Mode == SourceModeLocal && cfg.Source.Local.Watch {
		g.Go(func() error {
			if err := source.Watch(gCtx, cfg.Source.Local.Path, logger, cache.Invalidate); err != nil {
				logger.Warn("file watcher stopped", slog.String("error", err.Error()))
			}
			return nil
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

// newSource builds the document source selected by source.mode.
func newSource(ctx context.Context, cfg *Config) (source.Provider, error) {
	switch cfg.Source.Mode {
	case SourceModeDrive:
		return source.NewDrive(ctx, cfg.Source.Drive.FolderID, source.DriveCredentials{
			File: cfg.Source.Drive.CredentialsFile,
			JSON: cfg.Source.Drive.CredentialsJSON,
		})
	case SourceModeLocal:
		if err := os.MkdirAll(cfg.Source.Local.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create docs dir: %w", err)
		}
		return source.NewFS(cfg.Source.Local.Path)
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Source.Mode)
	}
}
