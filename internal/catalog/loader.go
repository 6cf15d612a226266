package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/storage"
)

// Skip reasons reported by the loader.
const (
	ReasonUnclassified = "unclassified"
	ReasonRead         = "read"
	ReasonParse        = "parse"
)

// Skip records a file that did not become an item.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    string `json:"error"`
}

// LoadResult is the outcome of loading the content tree.
type LoadResult struct {
	Catalog *Catalog
	Skipped []Skip
}

// Loader reads every Markdown file under a content root.
type Loader struct {
	store   storage.Provider
	workers int
	logger  *slog.Logger
}

// NewLoader creates a loader. workers bounds parallel parsing; values below 1
// mean one.
func NewLoader(store storage.Provider, workers int, logger *slog.Logger) *Loader {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, workers: workers, logger: logger}
}

// Load parses all content files. A file that cannot be read, parsed or
// classified is skipped; only a listing failure or cancellation aborts.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	files, err := l.store.List("")
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	var (
		mu      sync.Mutex
		items   = make([]models.ContentItem, 0, len(files))
		skipped []Skip
	)
	skip := func(p, reason string, err error) {
		mu.Lock()
		skipped = append(skipped, Skip{Path: p, Reason: reason, Err: err.Error()})
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	root := l.store.Root()
	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := l.store.Read(f.Path)
			if err != nil {
				l.logger.Warn("content read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
				skip(f.Path, ReasonRead, err)
				return nil
			}
			parsed, err := ParseItem(AbsPath(root, f.Path), f.Path, data)
			if err != nil {
				reason := ReasonParse
				if errors.Is(err, apperr.ErrUnclassified) {
					reason = ReasonUnclassified
					l.logger.Debug("content skipped", slog.String("path", f.Path), slog.String("reason", reason))
				} else {
					l.logger.Warn("content parse failed", slog.String("path", f.Path), slog.String("error", err.Error()))
				}
				skip(f.Path, reason, err)
				return nil
			}
			if parsed.DateErr != nil {
				l.logger.Warn("content date ignored", slog.String("path", f.Path), slog.String("error", parsed.DateErr.Error()))
			}
			mu.Lock()
			items = append(items, parsed.Item)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })
	return &LoadResult{Catalog: New(items), Skipped: skipped}, nil
}
