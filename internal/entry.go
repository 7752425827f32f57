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

	"github.com/starford/grampsxml/internal/api"
	"github.com/starford/grampsxml/internal/archive"
	"github.com/starford/grampsxml/internal/catalog"
	"github.com/starford/grampsxml/internal/mcpserver"
	"github.com/starford/grampsxml/internal/sse"
	"github.com/starford/grampsxml/internal/storage"
	"github.com/starford/grampsxml/internal/validator"
)

// NewLogger returns the structured JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewValidator builds the validator described by the schema section.
// The schema pass is only enabled in strict mode.
func NewValidator(cfg SchemaConfig) (*validator.Validator, error) {
	if !cfg.Strict {
		return validator.New(), nil
	}
	schema, err := validator.LoadSchema(cfg.Path)
	if err != nil {
		return nil, err
	}
	return validator.New(validator.WithSchema(schema)), nil
}

// workspace is the archive directory, its catalog and the service over both.
type workspace struct {
	db  *catalog.DB
	svc *archive.Service
}

func (w *workspace) Close() error {
	return w.db.Close()
}

func openWorkspace(cfg *Config, logger *slog.Logger, extra ...archive.Option) (*workspace, error) {
	// Ensure archive directory exists.
	if err := os.MkdirAll(cfg.Archive.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	v, err := NewValidator(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}

	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	opts := append([]archive.Option{
		archive.WithValidator(v),
		archive.WithLogger(logger),
		archive.WithWorkers(cfg.Archive.Workers),
	}, extra...)
	svc := archive.NewService(store, db, opts...)
	return &workspace{db: db, svc: svc}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}

	cfg := app.config

	logger := NewLogger(app.logOutput, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("strict", cfg.Schema.Strict),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	ws, err := openWorkspace(cfg, logger, archive.WithNotifier(broker.PublishArchiveEvent))
	if err != nil {
		return err
	}
	defer ws.Close()

	// Run initial sync.
	if err := ws.svc.Sync(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(ws.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if err := ws.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the catalog in step with the archive directory and announce changes.
	g.Go(func() error {
		if err := ws.svc.Watch(gCtx, cfg.Archive.Path, broker.PublishArchiveEvent); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher returns once the server stops.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs default to stderr so
// they never mix with the protocol stream.
func RunMCP(_ context.Context, version string, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}

	logger := NewLogger(app.logOutput, app.config.App.LogLevel)
	slog.SetDefault(logger)

	ws, err := openWorkspace(app.config, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.svc.Sync(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(ws.svc, version).ServeStdio()
}

// RunBatch validates every archive of the archive directory, refreshing the
// catalog, and returns the reports.
func RunBatch(ctx context.Context, opts ...Option) ([]archive.Report, error) {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(app.logOutput, app.config.App.LogLevel)

	ws, err := openWorkspace(app.config, logger)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	return ws.svc.ValidateAll(ctx)
}
