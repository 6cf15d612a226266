// Package pagegen maps content items to the set of pages a build emits.
package pagegen

import (
	"path"
	"sort"
	"strings"

	"github.com/starford/eduhub/internal/links"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/tags"
)

// Conflict reports an item whose slug was already claimed, or a tag whose
// page path collides with another page or escapes the tags section. Tag
// conflicts carry Tag and leave ItemID and Source empty.
type Conflict struct {
	Path    string `json:"path"`
	ItemID  string `json:"item_id,omitempty"`
	Source  string `json:"source,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Claimed string `json:"claimed_by"` // item id, or the template of a reserved page
}

// claimInvalid marks a tag path that resolves outside the tags section
// without hitting an existing page.
const claimInvalid = "invalid tag path"

// Classify returns the category of a source path.
func Classify(path string) (models.Category, bool) {
	return links.Classify(path)
}

// BuildPageSet returns every page of the site sorted by path, plus the items
// that could not be placed. Items are claimed in source path order so the
// result does not depend on input order.
func BuildPageSet(items []models.ContentItem) ([]models.PageSpec, []Conflict) {
	var pages []models.PageSpec
	claimed := make(map[string]string)

	reserve := func(p models.PageSpec) {
		pages = append(pages, p)
		claimed[p.Path] = string(p.Template)
	}

	reserve(models.PageSpec{Path: "/", Template: models.TemplateHome})
	for _, c := range models.Categories {
		reserve(models.PageSpec{
			Path:     links.CategoryPath(c),
			Template: models.TemplateListing,
			Context:  models.PageContext{Category: c},
		})
	}
	reserve(models.PageSpec{Path: links.TagIndexPath, Template: models.TemplateTagIndex})

	var conflicts []Conflict
	for _, t := range tags.Unique(items) {
		p := links.TagPath(t)
		if owner, ok := tagClaim(p, claimed); !ok {
			conflicts = append(conflicts, Conflict{Path: p, Tag: t, Claimed: owner})
			continue
		}
		reserve(models.PageSpec{
			Path:     p,
			Template: models.TemplateTag,
			Context:  models.PageContext{Tag: t},
		})
	}

	ordered := make([]models.ContentItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SourcePath < ordered[j].SourcePath })

	for _, it := range ordered {
		if owner, taken := claimed[it.Slug]; taken {
			conflicts = append(conflicts, Conflict{Path: it.Slug, ItemID: it.ID, Source: it.SourcePath, Claimed: owner})
			continue
		}
		claimed[it.Slug] = it.ID
		pages = append(pages, models.PageSpec{
			Path:     it.Slug,
			Template: it.Category.Template(),
			Context: models.PageContext{
				ItemID:      it.ID,
				RelatedTags: it.Tags,
				Category:    it.Category,
			},
		})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages, conflicts
}

// tagClaim reports whether tag page p may be emitted. A path that does not
// survive cleaning, or that cleans to a page outside the tag section, is
// rejected along with the owner of whatever it would overwrite.
func tagClaim(p string, claimed map[string]string) (string, bool) {
	clean := path.Clean(p) + "/"
	if clean == "//" {
		clean = "/"
	}
	if clean != p || !strings.HasPrefix(p, links.TagIndexPath) || p == links.TagIndexPath {
		if owner, taken := claimed[clean]; taken {
			return owner, false
		}
		return claimInvalid, false
	}
	if owner, taken := claimed[p]; taken {
		return owner, false
	}
	return "", true
}
