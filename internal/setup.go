package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/mcpserver"
	"github.com/starford/eduhub/internal/metrics"
	"github.com/starford/eduhub/internal/render"
	"github.com/starford/eduhub/internal/site"
	"github.com/starford/eduhub/internal/storage"
)

// runtime holds the components shared by every command.
type runtime struct {
	cfg      *Config
	version  string
	logger   *slog.Logger
	content  *storage.FS
	output   *storage.FS
	db       *index.DB
	renderer *render.Renderer
	svc      *contentservice.Service
	builder  *site.Builder
	registry *prom.Registry
}

func setup(opts ...Option) (*runtime, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.String("output_dir", cfg.Site.OutputDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	content, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("init content storage: %w", err)
	}
	output, err := storage.EnsureFS(cfg.Site.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	renderer, err := render.New(render.Options{
		Title:      cfg.Site.Title,
		PathPrefix: cfg.Site.PathPrefix,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	rt := &runtime{
		cfg:      cfg,
		version:  app.version,
		logger:   logger,
		content:  content,
		output:   output,
		db:       db,
		renderer: renderer,
		svc:      contentservice.NewService(content, db),
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		rt.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	rt.builder = site.NewBuilder(content, output, renderer, site.Options{
		Workers:    cfg.Content.Workers,
		BaseURL:    cfg.Site.BaseURL,
		PathPrefix: cfg.Site.PathPrefix,
		DB:         db,
		Recorder:   recorder,
		Logger:     logger,
	})
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("index close failed", slog.String("error", err.Error()))
	}
}

// Build renders the site once into the output directory.
func Build(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	rep, err := rt.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if rep.Failed > 0 {
		return fmt.Errorf("build: %d pages failed", rep.Failed)
	}
	return nil
}

// ServeMCP syncs the index and serves the MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	rt, err := setup(opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.svc.Reindex(ctx, rt.logger); err != nil {
		rt.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc, rt.version).ServeStdio()
}
