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

	"github.com/starford/eduhub/internal/api"
	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/links"
	"github.com/starford/eduhub/internal/metrics"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/site"
	"github.com/starford/eduhub/internal/sse"
)

const (
	shutdownTimeout = 10 * time.Second
	sseHeartbeat    = 30 * time.Second
)

// Run builds the site, then serves it with live rebuilds until ctx is done
// or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg := rt.cfg
	logger := rt.logger

	// Initial build. A failing build still serves whatever exists.
	if _, err := rt.builder.Build(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(sseHeartbeat)
	defer broker.Close()

	rebuilder := site.NewRebuilder(rt.builder, cfg.Content.Debounce, logger, func(rep *site.Report) {
		broker.PublishBuild(rep.BuildID, rep.Pages)
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           rt.router(broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch content; every change updates the index and schedules a rebuild.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.content, rt.content.Root(), logger, func(kind, path string) {
			broker.PublishContentEvent(kind, path)
			rebuilder.Notify(kind, path)
		})
	})

	g.Go(func() error {
		return rebuilder.Run(gCtx)
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Streams never finish on their own; close them first so Shutdown can drain.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// router assembles health checks, the JSON API, metrics, the dynamic
// listings and the static output tree.
func (rt *runtime) router(broker *sse.Broker) http.Handler {
	cfg := rt.cfg

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
		if _, err := os.Stat(filepath.Join(rt.output.Root(), "index.html")); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	if rt.registry != nil {
		r.Handle(cfg.Metrics.Path, metrics.HTTPHandler(rt.registry))
	}

	pages := chi.NewRouter()
	for _, cat := range models.Categories {
		pages.Method(http.MethodGet, links.CategoryPath(cat), site.ListingHandler(rt.renderer, rt.svc, cat))
	}
	pages.Handle("/*", http.FileServer(http.Dir(rt.output.Root())))

	if prefix := cfg.Site.PathPrefix; prefix != "" {
		r.Get(prefix, func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, prefix+"/", http.StatusMovedPermanently)
		})
		r.Mount(prefix+"/", http.StripPrefix(prefix, pages))
	} else {
		r.Mount("/", pages)
	}
	return r
}
