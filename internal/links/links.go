// Package links derives site paths from content source paths and resolves
// embeddable YouTube identifiers.
package links

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/starford/eduhub/internal/models"
)

// markers are checked in category priority order.
var markers = func() []struct {
	cat    models.Category
	marker string
} {
	out := make([]struct {
		cat    models.Category
		marker string
	}, 0, len(models.Categories))
	for _, c := range models.Categories {
		out = append(out, struct {
			cat    models.Category
			marker string
		}{c, "/content/" + string(c) + "/"})
	}
	return out
}()

// Classify returns the category of a source path by looking for the
// literal "/content/{category}/" substrings in priority order.
func Classify(sourcePath string) (models.Category, bool) {
	c, _, ok := classify(sourcePath)
	return c, ok
}

func classify(sourcePath string) (models.Category, int, bool) {
	p := strings.ReplaceAll(sourcePath, "\\", "/")
	for _, m := range markers {
		if i := strings.Index(p, m.marker); i >= 0 {
			return m.cat, i + len(m.marker), true
		}
	}
	return "", 0, false
}

// SlugFor returns the canonical site path for a source file, or false when
// the path belongs to no category.
//
//	/repo/src/content/tools/chatgpt/index.md -> /tools/chatgpt/
//	/repo/src/content/tools/foo.md           -> /tools/foo/
func SlugFor(sourcePath string) (string, bool) {
	cat, offset, ok := classify(sourcePath)
	if !ok {
		return "", false
	}
	p := strings.ReplaceAll(sourcePath, "\\", "/")
	frag := p[offset:]
	frag = strings.TrimSuffix(frag, path.Ext(frag))
	if frag == "index" {
		frag = ""
	} else {
		frag = strings.TrimSuffix(frag, "/index")
	}
	frag = strings.Trim(frag, "/")

	slug := "/" + string(cat) + "/"
	if frag != "" {
		slug += frag + "/"
	}
	return slug, true
}

// The dot in youtu.be is left unescaped and matches any character.
var youtubeRe = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// youtubeIDLen is the fixed length of a YouTube video identifier.
const youtubeIDLen = 11

// YouTubeID extracts the video identifier from a YouTube URL. It returns
// "" when the input does not match or the candidate is not exactly 11
// characters long.
func YouTubeID(url string) string {
	if url == "" {
		return ""
	}
	m := youtubeRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	if utf8.RuneCountInString(m[2]) != youtubeIDLen {
		return ""
	}
	return m[2]
}

// EmbedURL returns the iframe source for a video id.
func EmbedURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + id
}

// WatchURL returns the public watch page for a video id.
func WatchURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}

// ThumbnailURL returns the medium-quality preview image for a video id.
func ThumbnailURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/mqdefault.jpg"
}

// TagPath returns the listing path of a tag.
func TagPath(tag string) string {
	return "/tags/" + tag + "/"
}

// TagIndexPath is the path of the all-tags page.
const TagIndexPath = "/tags/"

// CategoryPath returns the listing path of a category.
func CategoryPath(c models.Category) string {
	return "/" + string(c) + "/"
}
