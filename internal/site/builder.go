// Package site builds the static output tree and serves the dynamic
// listing pages of the preview server.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/catalog"
	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/metrics"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/pagegen"
	"github.com/starford/eduhub/internal/render"
	"github.com/starford/eduhub/internal/storage"
)

// Skip reason for items that lost a page path to another claimant.
const ReasonConflict = "conflict"

// Options configures a Builder.
type Options struct {
	// Workers bounds parallel parsing and rendering.
	Workers int
	// BaseURL is the absolute site origin used in sitemap.xml. An empty
	// BaseURL disables the sitemap.
	BaseURL    string
	PathPrefix string
	// DB, when set, is synced with the content tree on every build.
	DB       index.ContentIndex
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Report summarizes one build.
type Report struct {
	BuildID   string        `json:"build_id"`
	Items     int           `json:"items"`
	Pages     int           `json:"pages"`
	Skipped   int           `json:"skipped"`
	Conflicts int           `json:"conflicts"`
	Failed    int           `json:"failed"`
	Outcome   string        `json:"outcome"`
	Duration  time.Duration `json:"duration"`
}

// Builder renders the content tree into the output provider.
type Builder struct {
	content  storage.Provider
	output   storage.Provider
	renderer *render.Renderer
	loader   *catalog.Loader
	opts     Options
	logger   *slog.Logger
	recorder metrics.Recorder

	// One build at a time: the output tree is cleared on every run.
	mu sync.Mutex
}

// NewBuilder creates a builder reading from content and writing to output.
func NewBuilder(content, output storage.Provider, r *render.Renderer, opts Options) *Builder {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{
		content:  content,
		output:   output,
		renderer: r,
		loader:   catalog.NewLoader(content, opts.Workers, logger),
		opts:     opts,
		logger:   logger,
		recorder: rec,
	}
}

// PagePath maps a site path to the file that serves it.
func PagePath(sitePath string) string {
	return strings.TrimPrefix(sitePath, "/") + "index.html"
}

// Build runs a complete build. Items and pages that fail are skipped and
// counted; only loading, clearing the output or cancellation abort.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	rep := &Report{BuildID: uuid.NewString()}
	log := b.logger.With(slog.String("build_id", rep.BuildID))

	fail := func(err error) (*Report, error) {
		rep.Outcome = metrics.OutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			rep.Outcome = metrics.OutcomeCanceled
		}
		rep.Duration = time.Since(start)
		b.recorder.ObserveBuild(rep.Duration, rep.Outcome)
		log.Error("build: failed", slog.String("error", err.Error()))
		return rep, err
	}

	loaded, err := b.loader.Load(ctx)
	if err != nil {
		return fail(fmt.Errorf("site: build: %w", err))
	}
	for _, s := range loaded.Skipped {
		b.recorder.ItemSkipped(s.Reason)
	}
	rep.Items = loaded.Catalog.Len()
	rep.Skipped = len(loaded.Skipped)

	if b.opts.DB != nil {
		if err := index.Sync(b.opts.DB, b.content, log); err != nil {
			log.Warn("build: index sync failed", slog.String("error", err.Error()))
		}
	}

	pages, conflicts := pagegen.BuildPageSet(loaded.Catalog.Items())
	for _, c := range conflicts {
		err := fmt.Errorf("%s: %w", c.Path, apperr.ErrSlugConflict)
		log.Warn("build: page skipped",
			slog.String("path", c.Path),
			slog.String("source", c.Source),
			slog.String("tag", c.Tag),
			slog.String("claimed_by", c.Claimed),
			slog.String("error", err.Error()))
		b.recorder.ItemSkipped(ReasonConflict)
	}
	rep.Conflicts = len(conflicts)

	if err := b.output.Clear(); err != nil {
		return fail(fmt.Errorf("site: build: %w", err))
	}
	if err := b.output.Write(render.StylesheetPath, render.Stylesheet()); err != nil {
		return fail(fmt.Errorf("site: build: %w", err))
	}
	if err := b.output.Write(render.ScriptPath, render.Script()); err != nil {
		return fail(fmt.Errorf("site: build: %w", err))
	}

	written, failed, err := b.renderPages(ctx, log, pages, loaded.Catalog)
	if err != nil {
		return fail(fmt.Errorf("site: build: %w", err))
	}
	rep.Pages = len(written)
	rep.Failed = failed

	if b.opts.BaseURL != "" {
		if err := b.writeSitemap(written); err != nil {
			log.Warn("build: sitemap failed", slog.String("error", err.Error()))
			rep.Failed++
		}
	}

	rep.Outcome = metrics.OutcomeSuccess
	if rep.Failed > 0 || rep.Conflicts > 0 {
		rep.Outcome = metrics.OutcomePartial
	}
	rep.Duration = time.Since(start)
	b.recorder.ObserveBuild(rep.Duration, rep.Outcome)

	log.Info("build: done",
		slog.Int("items", rep.Items),
		slog.Int("pages", rep.Pages),
		slog.Int("skipped", rep.Skipped),
		slog.Int("conflicts", rep.Conflicts),
		slog.Int("failed", rep.Failed),
		slog.String("outcome", rep.Outcome),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

// renderPages writes every page and returns the site paths that were written.
func (b *Builder) renderPages(ctx context.Context, log *slog.Logger, pages []models.PageSpec, c *catalog.Catalog) ([]string, int, error) {
	var (
		mu      sync.Mutex
		written = make([]string, 0, len(pages))
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for _, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			err := b.renderer.RenderPage(&buf, page, c)
			if err == nil {
				err = b.output.Write(PagePath(page.Path), buf.Bytes())
			}
			if err != nil {
				log.Warn("build: page failed", slog.String("path", page.Path), slog.String("error", err.Error()))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			b.recorder.PageRendered(string(page.Template))
			mu.Lock()
			written = append(written, page.Path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, failed, err
	}
	sort.Strings(written)
	return written, failed, nil
}
