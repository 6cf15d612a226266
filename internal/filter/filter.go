// Package filter selects content items by free-text search and tags.
package filter

import (
	"net/url"
	"strings"

	"github.com/starford/eduhub/internal/models"
)

// Filter returns the items matching both the search term and the selected
// tags, in their original order. The input is never modified.
//
// The search term matches when it is empty or is a case-insensitive
// substring of the title or the description. It is not trimmed, so a
// whitespace-only term must match literally. The tag predicate matches when
// no tag is selected or the item carries any one of the selected tags.
func Filter(items []models.ContentItem, searchTerm string, selectedTags []string) []models.ContentItem {
	needle := strings.ToLower(searchTerm)
	out := make([]models.ContentItem, 0, len(items))
	for _, it := range items {
		if matchesSearch(it, searchTerm, needle) && matchesTags(it, selectedTags) {
			out = append(out, it)
		}
	}
	return out
}

func matchesSearch(it models.ContentItem, term, needle string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Title), needle) ||
		strings.Contains(strings.ToLower(it.Description), needle)
}

func matchesTags(it models.ContentItem, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, want := range selected {
		for _, have := range it.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// State is the search and filter selection of one listing view.
type State struct {
	SearchTerm   string   `json:"search_term"`
	SelectedTags []string `json:"selected_tags"`
}

// StateFromQuery reads "q" and repeated "tag" parameters.
func StateFromQuery(v url.Values) State {
	var s State
	s.SearchTerm = v.Get("q")
	for _, t := range v["tag"] {
		if t != "" && !s.Has(t) {
			s.SelectedTags = append(s.SelectedTags, t)
		}
	}
	return s
}

// Has reports whether tag is selected.
func (s State) Has(tag string) bool {
	for _, t := range s.SelectedTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Toggle selects tag, or deselects it when already selected.
func (s *State) Toggle(tag string) {
	for i, t := range s.SelectedTags {
		if t == tag {
			s.SelectedTags = append(s.SelectedTags[:i:i], s.SelectedTags[i+1:]...)
			return
		}
	}
	s.SelectedTags = append(s.SelectedTags, tag)
}

// Clear resets the search term and the tag selection.
func (s *State) Clear() {
	s.SearchTerm = ""
	s.SelectedTags = nil
}

// IsEmpty reports whether the state filters nothing out.
func (s State) IsEmpty() bool {
	return s.SearchTerm == "" && len(s.SelectedTags) == 0
}

// Apply filters items with the current state.
func (s State) Apply(items []models.ContentItem) []models.ContentItem {
	return Filter(items, s.SearchTerm, s.SelectedTags)
}

// Query encodes the state back into URL parameters.
func (s State) Query() url.Values {
	v := url.Values{}
	if s.SearchTerm != "" {
		v.Set("q", s.SearchTerm)
	}
	for _, t := range s.SelectedTags {
		v.Add("tag", t)
	}
	return v
}

// ToggleQuery returns the encoded query of the state with tag toggled,
// leaving s untouched. Listing pages use it for tag chip links.
func (s State) ToggleQuery(tag string) string {
	next := State{SearchTerm: s.SearchTerm, SelectedTags: append([]string(nil), s.SelectedTags...)}
	next.Toggle(tag)
	return next.Query().Encode()
}
