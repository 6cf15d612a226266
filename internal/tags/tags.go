// Package tags derives the tag set of a collection of content items.
//
// Tags are compared byte for byte: "AI" and "ai" are two different tags.
// This matches what authors wrote and is kept on purpose.
package tags

import (
	"sort"

	"github.com/starford/eduhub/internal/models"
)

// Unique returns the deduplicated union of all tags across items, sorted
// ascending. Empty input yields an empty, non-nil slice.
func Unique(items []models.ContentItem) []string {
	return UniqueBy(items, func(it models.ContentItem) []string { return it.Tags })
}

// UniqueBy is Unique for any element type that exposes a tag list.
func UniqueBy[T any](items []T, tagsOf func(T) []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, it := range items {
		for _, t := range tagsOf(it) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Counts returns, for every tag, the number of distinct items carrying it,
// sorted by tag. An item listing the same tag twice counts once.
func Counts(items []models.ContentItem) []models.TagCount {
	counts := make(map[string]int)
	for _, it := range items {
		seen := make(map[string]struct{}, len(it.Tags))
		for _, t := range it.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			counts[t]++
		}
	}
	out := make([]models.TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, models.TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// ByPopularity returns a copy of counts ordered by count descending, then by
// tag ascending.
func ByPopularity(counts []models.TagCount) []models.TagCount {
	out := make([]models.TagCount, len(counts))
	copy(out, counts)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Top returns the n most used tags. n <= 0 returns all of them.
func Top(items []models.ContentItem, n int) []models.TagCount {
	out := ByPopularity(Counts(items))
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
