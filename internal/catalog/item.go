// Package catalog loads content files into classified, parsed items.
package catalog

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/eduhub/internal/apperr"
	"github.com/starford/eduhub/internal/checksum"
	"github.com/starford/eduhub/internal/links"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/parser"
)

// ItemID returns the stable identifier of the item at relPath.
func ItemID(relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(relPath)).String()
}

// Parsed is a content item together with its Markdown body and non-fatal
// parse diagnostics.
type Parsed struct {
	Item    models.ContentItem
	Body    string
	DateErr error
}

// ParseItem classifies and parses one content file. absPath decides the
// category and slug; relPath is what the item records as its source.
// A path that matches no category returns apperr.ErrUnclassified.
func ParseItem(absPath, relPath string, data []byte) (Parsed, error) {
	abs := strings.ReplaceAll(absPath, "\\", "/")
	cat, ok := links.Classify(abs)
	if !ok {
		return Parsed{}, fmt.Errorf("catalog: %s: %w", relPath, apperr.ErrUnclassified)
	}
	slug, _ := links.SlugFor(abs)

	res, err := parser.Parse(relPath, data)
	if err != nil {
		return Parsed{}, fmt.Errorf("catalog: %w", err)
	}
	fm := res.Frontmatter

	item := models.ContentItem{
		ID:          ItemID(relPath),
		Slug:        slug,
		SourcePath:  relPath,
		Category:    cat,
		Title:       res.Title,
		Description: strings.TrimSpace(fm.Description),
		Tags:        cleanTags(fm.Tags),
		Date:        res.Date,
		GitHub:      strings.TrimSpace(fm.GitHub),
		YouTubeLink: strings.TrimSpace(fm.YouTubeLink),
		SlideLink:   strings.TrimSpace(fm.SlideLink),
		HTML:        res.HTML,
		Checksum:    checksum.Sum(data),
	}
	item.VideoID = links.YouTubeID(item.YouTubeLink)
	return Parsed{Item: item, Body: res.Body, DateErr: res.DateErr}, nil
}

// cleanTags drops blank entries and keeps authoring order. Duplicates stay;
// they are harmless to every consumer.
func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AbsPath joins a content root and a relative path into the slash path
// classification runs on.
func AbsPath(root, rel string) string {
	return path.Join(strings.ReplaceAll(root, "\\", "/"), rel)
}
