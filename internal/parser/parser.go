// Package parser extracts frontmatter from Markdown content and renders the
// body to HTML.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Frontmatter is the authoring contract of a content file.
type Frontmatter struct {
	Title       string   `yaml:"title" toml:"title"`
	Description string   `yaml:"description" toml:"description"`
	Tags        []string `yaml:"tags" toml:"tags"`
	GitHub      string   `yaml:"github" toml:"github"`
	YouTubeLink string   `yaml:"youtubeLink" toml:"youtubeLink"`
	SlideLink   string   `yaml:"slideLink" toml:"slideLink"`
	Date        string   `yaml:"date" toml:"date"`
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter Frontmatter
	// HasFrontmatter is false when the file had none or it failed to decode.
	HasFrontmatter bool
	Body           string
	HTML           string
	Title          string
	Date           time.Time
	// DateErr is set when a date was given but matched no known layout.
	DateErr error
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(gmparser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Parse decodes frontmatter and renders the body of a Markdown file. name is
// the slash-separated file path, used for the title fallback.
func Parse(name string, data []byte) (*Result, error) {
	var fm Frontmatter
	res := &Result{}

	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		// Invalid frontmatter: the whole file is body.
		fm = Frontmatter{}
		body = data
	} else {
		res.HasFrontmatter = len(body) != len(data)
	}
	res.Frontmatter = fm
	res.Body = strings.TrimLeft(string(body), "\r\n")

	var buf bytes.Buffer
	if err := md.Convert([]byte(res.Body), &buf); err != nil {
		return nil, fmt.Errorf("parser: render %s: %w", name, err)
	}
	res.HTML = buf.String()

	res.Title = deriveTitle(fm.Title, res.Body, name)
	if fm.Date != "" {
		res.Date, res.DateErr = ParseDate(fm.Date)
	}
	return res, nil
}

// ParseDate accepts the date layouts content authors use.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parser: unrecognised date %q", s)
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise the title-cased file name.
func deriveTitle(fmTitle, body, name string) string {
	if t := strings.TrimSpace(fmTitle); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return titleFromName(name)
}

func titleFromName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if stem == "index" {
		if dir := path.Base(path.Dir(name)); dir != "." && dir != "/" {
			stem = dir
		}
	}
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return cases.Title(language.English).String(strings.TrimSpace(stem))
}
