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

	"github.com/starford/insights/internal/api"
	"github.com/starford/insights/internal/index"
	"github.com/starford/insights/internal/insightservice"
	"github.com/starford/insights/internal/master"
	"github.com/starford/insights/internal/mcpserver"
	"github.com/starford/insights/internal/parser"
	"github.com/starford/insights/internal/reports"
	"github.com/starford/insights/internal/sse"
	"github.com/starford/insights/internal/storage"
)

// core holds the components shared by every command.
type core struct {
	store    *storage.FS
	entities *parser.Entities
	db       *index.DB
	src      index.Source
	doc      *master.Document
	reports  *reports.Store
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// openCore prepares storage, the entity dictionary and the report catalog.
// The caller closes c.db.
func openCore(cfg *Config, logger *slog.Logger) (*core, error) {
	if err := os.MkdirAll(cfg.Insights.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create insights dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Insights.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := store.EnsureDir(cfg.Insights.ReportsDir); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	entities := parser.DefaultEntities()
	if cfg.Insights.EntitiesFile != "" {
		entities, err = parser.LoadEntities(cfg.Insights.EntitiesFile)
		if err != nil {
			return nil, fmt.Errorf("load entities: %w", err)
		}
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	return &core{
		store:    store,
		entities: entities,
		db:       db,
		src:      index.Source{Store: store, Dir: cfg.Insights.ReportsDir, Entities: entities},
		doc:      master.New(store, cfg.Insights.MasterFile, master.WithLogger(logger)),
		reports:  reports.New(store, cfg.Insights.ReportsDir, reports.WithLogger(logger)),
	}, nil
}

func (c *core) service(app *application, logger *slog.Logger, extra ...insightservice.Option) *insightservice.Service {
	opts := []insightservice.Option{
		insightservice.WithCatalog(c.db, c.src),
		insightservice.WithLogger(logger),
	}
	if app.analyzer != nil {
		opts = append(opts, insightservice.WithAnalyzer(app.analyzer))
	}
	opts = append(opts, extra...)
	return insightservice.New(c.doc, c.reports, c.entities, opts...)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("insights_dir", cfg.Insights.Dir),
		slog.String("reports_dir", cfg.Insights.ReportsDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := openCore(cfg, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	// Run initial sync.
	if err := index.Sync(c.db, c.src, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := c.service(app, logger, insightservice.WithPublisher(broker))
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
		if _, err := c.db.Count(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
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

	// SIGINT/SIGTERM cancel ctx, which stops every goroutine below.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watch := func(ctx context.Context) error {
		return index.Watch(ctx, c.db, c.src, logger, broker.PublishReportEvent)
	}
	if err := serve(ctx, httpServer, watch, logger); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// serve runs the HTTP server and the reports watcher until ctx is
// cancelled or the server fails, then shuts the server down.
func serve(ctx context.Context, httpServer *http.Server, watch func(context.Context) error, logger *slog.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)

	// Start reports watcher.
	g.Go(func() error {
		if err := watch(gCtx); err != nil {
			logger.Warn("reports watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down once a signal arrives or a goroutine fails.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	c, err := openCore(app.config, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	if err := index.Sync(c.db, c.src, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(c.service(app, logger), app.version).ServeStdio()
}

// Reindex rebuilds the report catalog from the reports directory.
func Reindex(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stdout, app.config.App.LogLevel)

	c, err := openCore(app.config, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	if err := index.Sync(c.db, c.src, logger); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	n, err := c.db.Count()
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	logger.Info("Reindex finished", slog.Int("reports", n))
	return nil
}
