package catalog

import (
	"slices"
	"sort"

	"github.com/starford/eduhub/internal/models"
)

// Catalog is an immutable view over loaded items. Callers must not modify
// the slices it returns.
type Catalog struct {
	items []models.ContentItem // sorted by SourcePath
	byID  map[string]int
	byCat map[models.Category][]models.ContentItem
}

// New builds a catalog. The input slice is copied.
func New(items []models.ContentItem) *Catalog {
	c := &Catalog{
		items: slices.Clone(items),
		byID:  make(map[string]int, len(items)),
		byCat: make(map[models.Category][]models.ContentItem, len(models.Categories)),
	}
	sort.SliceStable(c.items, func(i, j int) bool { return c.items[i].SourcePath < c.items[j].SourcePath })
	for i, it := range c.items {
		c.byID[it.ID] = i
		c.byCat[it.Category] = append(c.byCat[it.Category], it)
	}
	for cat := range c.byCat {
		SortByDate(c.byCat[cat])
	}
	return c
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Items returns every item in source path order.
func (c *Catalog) Items() []models.ContentItem { return c.items }

// Item looks an item up by id.
func (c *Catalog) Item(id string) (models.ContentItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.ContentItem{}, false
	}
	return c.items[i], true
}

// InCategory returns the items of cat, newest first.
func (c *Catalog) InCategory(cat models.Category) []models.ContentItem {
	return c.byCat[cat]
}

// Latest returns at most n of the newest items of cat.
func (c *Catalog) Latest(cat models.Category, n int) []models.ContentItem {
	items := c.byCat[cat]
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Tagged returns the items of cat carrying tag, newest first.
func (c *Catalog) Tagged(tag string, cat models.Category) []models.ContentItem {
	var out []models.ContentItem
	for _, it := range c.byCat[cat] {
		if slices.Contains(it.Tags, tag) {
			out = append(out, it)
		}
	}
	return out
}

// Related returns up to limit items of cat sharing any of tags, newest
// first, leaving out excludeID.
func (c *Catalog) Related(tags []string, cat models.Category, excludeID string, limit int) []models.ContentItem {
	if len(tags) == 0 || limit == 0 {
		return nil
	}
	var out []models.ContentItem
	for _, it := range c.byCat[cat] {
		if it.ID == excludeID {
			continue
		}
		if sharesTag(it.Tags, tags) {
			out = append(out, it)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func sharesTag(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// SortByDate orders items newest first. Undated items go last and slug
// breaks ties, so the order never depends on input order.
func SortByDate(items []models.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Date.IsZero() != b.Date.IsZero():
			return !a.Date.IsZero()
		case !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		}
		return a.Slug < b.Slug
	})
}
