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

	"github.com/starford/protweight/internal/api"
	"github.com/starford/protweight/internal/boundcache"
	"github.com/starford/protweight/internal/boundstore"
	"github.com/starford/protweight/internal/metrics"
	"github.com/starford/protweight/internal/queryservice"
	"github.com/starford/protweight/internal/sse"
	"github.com/starford/protweight/internal/storage"
)

// components are the parts shared by every command.
type components struct {
	logger *slog.Logger
	graphs *storage.FS
	store  boundstore.Store
	cache  *boundcache.Cache
	svc    *queryservice.Service
}

func (c *components) Close() {
	if err := c.store.Close(); err != nil {
		c.logger.Warn("bound store close failed", slog.String("error", err.Error()))
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = newLogger(app.config.App, app.logOutput)
	}
	slog.SetDefault(app.logger)
	return app, nil
}

// setup opens the graph directory and the bound store and builds the query
// service. onBuilt, if non-nil, runs after every bound build.
func (a *application) setup(onBuilt boundcache.BuildHook) (*components, error) {
	cfg := a.config
	logger := a.logger

	if err := os.MkdirAll(cfg.Graphs.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create graph dir: %w", err)
	}
	graphs, err := storage.NewFS(cfg.Graphs.Path, storage.Layout(cfg.Graphs.Layout))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if cfg.Cache.Path != "" && cfg.Cache.Driver != CacheDriverMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	store, err := boundstore.Open(cfg.Cache.Driver, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("init bound store: %w", err)
	}

	cache := boundcache.New(store,
		boundcache.WithLogger(logger),
		boundcache.WithMaxEntries(cfg.Cache.MaxEntries),
		boundcache.WithBuildHook(func(key boundstore.Key, took time.Duration) {
			metrics.ObserveBoundBuild(took)
			logger.Info("bounds built",
				slog.String("accession", key.Accession),
				slog.Int("k", key.K),
				slog.Duration("took", took))
			if onBuilt != nil {
				onBuilt(key, took)
			}
		}),
	)

	return &components{
		logger: logger,
		graphs: graphs,
		store:  store,
		cache:  cache,
		svc:    queryservice.New(graphs, cache, cfg.Query.Settings(), logger),
	}, nil
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("graphs_path", cfg.Graphs.Path),
		slog.String("graphs_layout", cfg.Graphs.Layout),
		slog.String("cache_driver", cfg.Cache.Driver),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.App.EventThrottle)
	defer broker.Close()

	c, err := app.setup(func(key boundstore.Key, took time.Duration) {
		broker.PublishBoundsBuilt(key.Accession, key.K, took)
	})
	if err != nil {
		return err
	}
	defer c.Close()

	// Drop persisted bounds of graphs that changed while we were down.
	if n, err := boundcache.Sync(ctx, c.store, c.graphs, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("removed stale bounds", slog.Int("count", n))
	}

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Unauthenticated.
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if _, err := os.Stat(c.graphs.Root()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"graph directory unavailable"}`))
			return
		}
		healthOK(w, req)
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Graphs.Watch {
		g.Go(func() error {
			err := boundcache.Watch(gCtx, c.cache, c.graphs, c.graphs.Root(), logger, broker.PublishGraphEvent)
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
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

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
