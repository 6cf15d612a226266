// Package contentservice answers content queries for the API, the MCP
// server and the preview listings by combining the index with the pure
// filtering and tag helpers.
package contentservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/filter"
	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/links"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/storage"
	"github.com/starford/eduhub/internal/tags"
)

// Query selects items. Empty fields select everything.
type Query struct {
	Category models.Category
	Search   string
	Tags     []string
}

// ItemDetail is the full representation of one item.
type ItemDetail struct {
	models.ContentItem
	Capabilities models.Capabilities `json:"capabilities"`
	HTML         string              `json:"html"`
	EmbedURL     string              `json:"embed_url,omitempty"`
}

// Service coordinates index lookups and filtering.
type Service struct {
	store storage.Provider
	db    index.ContentIndex
}

// NewService creates a new content service. store may be nil when the
// service is only used for reads.
func NewService(store storage.Provider, db index.ContentIndex) *Service {
	return &Service{store: store, db: db}
}

// ParseCategory maps a request parameter to a category. The empty string
// means "all categories".
func ParseCategory(s string) (models.Category, error) {
	if s == "" {
		return "", nil
	}
	c, ok := models.ParseCategory(s)
	if !ok {
		return "", fmt.Errorf("unknown category %q: %w", s, apperr.ErrInvalidInput)
	}
	return c, nil
}

// List returns the items matching q, newest first. The search term and tag
// selection follow filter.Filter: tags are OR-ed, search is a
// case-insensitive substring of title or description.
func (s *Service) List(ctx context.Context, q Query) ([]models.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, _, err := s.db.ListItems(index.ListQuery{Category: q.Category})
	if err != nil {
		return nil, err
	}
	return filter.Filter(items, q.Search, q.Tags), nil
}

// Tags returns the sorted distinct tags of the items in cat.
func (s *Service) Tags(ctx context.Context, cat models.Category) ([]string, error) {
	items, err := s.List(ctx, Query{Category: cat})
	if err != nil {
		return nil, err
	}
	return tags.Unique(items), nil
}

// TagCounts returns per-tag item counts for cat, most used first.
func (s *Service) TagCounts(ctx context.Context, cat models.Category) ([]models.TagCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	groups, err := s.db.TagGroups(cat)
	if err != nil {
		return nil, err
	}
	return tags.ByPopularity(groups), nil
}

// Get returns one item by id, or apperr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*ItemDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	it, err := s.db.GetItem(id)
	if err != nil {
		return nil, err
	}
	d := &ItemDetail{
		ContentItem:  *it,
		Capabilities: it.Capabilities(),
		HTML:         it.HTML,
	}
	d.EmbedURL = links.EmbedURL(it.VideoID)
	return d, nil
}

// Search runs a full-text search over titles, descriptions, bodies and tags.
func (s *Service) Search(ctx context.Context, q string, limit int) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q == "" {
		return []index.SearchResult{}, nil
	}
	res, err := s.db.Search(q, limit)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []index.SearchResult{}
	}
	return res, nil
}

// Reindex brings the index in line with the content tree.
func (s *Service) Reindex(ctx context.Context, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.store == nil {
		return fmt.Errorf("contentservice: reindex: no content store")
	}
	return index.Sync(s.db, s.store, logger)
}
