// Package render turns page specs into HTML documents using the embedded
// template set.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/starford/eduhub/internal/catalog"
	"github.com/starford/eduhub/internal/checksum"
	"github.com/starford/eduhub/internal/filter"
	"github.com/starford/eduhub/internal/links"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/tags"
)

//go:embed templates
var templateFS embed.FS

//go:embed site.css
var stylesheet []byte

//go:embed listing.js
var listingScript []byte

// DateLayout is how dates are shown on pages.
const DateLayout = "January 02, 2006"

// Home page section sizes.
const (
	HomeTools    = 3
	HomeVideos   = 2
	HomeLessons  = 2
	HomeTags     = 8
	RelatedTools = 6
)

// StylesheetPath is where the stylesheet is written, relative to the output
// root. The layout links to it.
const StylesheetPath = "assets/site.css"

// ScriptPath is where the listing filter script is written. Static listing
// pages load it to filter cards in the browser.
const ScriptPath = "assets/listing.js"

// Options configures site-wide rendering.
type Options struct {
	Title string
	// PathPrefix is prepended to every internal link, e.g. "/hub".
	PathPrefix string
	// Now is used for the footer year. Defaults to time.Now.
	Now func() time.Time
}

// Renderer executes page templates. It is safe for concurrent use.
type Renderer struct {
	opts   Options
	prefix string
	cssVer string
	jsVer  string
	pages  map[models.TemplateID]*template.Template
}

var pageTemplates = []models.TemplateID{
	models.TemplateHome,
	models.TemplateListing,
	models.TemplateTool,
	models.TemplateVideo,
	models.TemplateLesson,
	models.TemplateTagIndex,
	models.TemplateTag,
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	if opts.Title == "" {
		opts.Title = "EduHub"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Renderer{
		opts:   opts,
		prefix: strings.TrimRight(opts.PathPrefix, "/"),
		cssVer: checksum.Short(stylesheet),
		jsVer:  checksum.Short(listingScript),
		pages:  make(map[models.TemplateID]*template.Template, len(pageTemplates)),
	}

	base, err := template.New("base").Funcs(r.funcs()).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse base: %w", err)
	}
	for _, id := range pageTemplates {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("render: clone for %s: %w", id, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/pages/"+string(id)+".html"); err != nil {
			return nil, fmt.Errorf("render: parse %s: %w", id, err)
		}
		r.pages[id] = t
	}
	return r, nil
}

// Stylesheet returns the site CSS.
func Stylesheet() []byte { return stylesheet }

// Script returns the listing filter script.
func Script() []byte { return listingScript }

// URL prefixes an internal path with the configured path prefix.
func (r *Renderer) URL(p string) string {
	return r.prefix + p
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"url":    r.URL,
		"tagURL": func(tag string) string { return r.URL(links.TagPath(url.PathEscape(tag))) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateLayout)
		},
		"embed": links.EmbedURL,
		"watch": links.WatchURL,
		"thumb": links.ThumbnailURL,
		"toggleURL": func(p string, s filter.State, tag string) string {
			return withQuery(r.URL(p), s.ToggleQuery(tag))
		},
		"clearURL": func(p string, s filter.State) string {
			return withQuery(r.URL(p), filter.State{SearchTerm: s.SearchTerm}.Query().Encode())
		},
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"plural": func(n int, singular string) string {
			if n == 1 {
				return "1 " + singular
			}
			return fmt.Sprintf("%d %ss", n, singular)
		},
	}
}

func withQuery(p, q string) string {
	if q == "" {
		return p
	}
	return p + "?" + q
}

type crumb struct {
	Label string
	Path  string
}

type siteView struct {
	Title      string
	CSSVersion string
	Year       int
}

type homeView struct {
	Tools   []models.ContentItem
	Videos  []models.ContentItem
	Lessons []models.ContentItem
}

type section struct {
	Category models.Category
	Items    []models.ContentItem
}

type noResults struct {
	Message  string
	ClearURL string
}

type listingView struct {
	Category  models.Category
	Path      string
	Items     []models.ContentItem
	AllTags   []string
	State     filter.State
	NoResults noResults
	// Set on static pages, where every item is rendered and the script
	// filters them from the query string.
	ClientFilter bool
	ScriptURL    string
	Filtered     string
}

type view struct {
	Site        siteView
	Title       string
	Description string
	Crumbs      []crumb
	Item        models.ContentItem
	Body        template.HTML
	Related     []models.ContentItem
	Home        homeView
	TagCounts   []models.TagCount
	Tag         string
	Sections    []section
	Listing     listingView
}

func (r *Renderer) newView(title string, crumbs ...crumb) *view {
	return &view{
		Site: siteView{
			Title:      r.opts.Title,
			CSSVersion: r.cssVer,
			Year:       r.opts.Now().Year(),
		},
		Title:  title,
		Crumbs: crumbs,
	}
}

var home = crumb{Label: "Home", Path: "/"}

// RenderPage writes the HTML document for page.
func (r *Renderer) RenderPage(w io.Writer, page models.PageSpec, c *catalog.Catalog) error {
	var v *view
	switch page.Template {
	case models.TemplateHome:
		v = r.newView("")
		v.Home = homeView{
			Tools:   c.Latest(models.CategoryTool, HomeTools),
			Videos:  c.Latest(models.CategoryVideo, HomeVideos),
			Lessons: c.Latest(models.CategoryLesson, HomeLessons),
		}
		v.TagCounts = tags.Top(c.Items(), HomeTags)

	case models.TemplateListing:
		cat := page.Context.Category
		items := c.InCategory(cat)
		return r.execute(w, models.TemplateListing, r.listing(cat, items, tags.Unique(items), filter.State{}, true))

	case models.TemplateTool, models.TemplateVideo, models.TemplateLesson:
		it, ok := c.Item(page.Context.ItemID)
		if !ok {
			return fmt.Errorf("render: %s: item %s not in catalog", page.Path, page.Context.ItemID)
		}
		v = r.newView(it.Title,
			home,
			crumb{Label: it.Category.Label(), Path: links.CategoryPath(it.Category)},
			crumb{Label: it.Title},
		)
		v.Description = it.Description
		v.Item = it
		v.Body = template.HTML(it.HTML)
		if page.Template == models.TemplateLesson {
			v.Related = c.Related(page.Context.RelatedTags, models.CategoryTool, it.ID, RelatedTools)
		}

	case models.TemplateTagIndex:
		v = r.newView("Tags", home, crumb{Label: "Tags"})
		v.TagCounts = tags.ByPopularity(tags.Counts(c.Items()))

	case models.TemplateTag:
		tag := page.Context.Tag
		v = r.newView("Tag: "+tag, home, crumb{Label: "Tags", Path: links.TagIndexPath}, crumb{Label: tag})
		v.Tag = tag
		for _, cat := range models.Categories {
			v.Sections = append(v.Sections, section{Category: cat, Items: c.Tagged(tag, cat)})
		}

	default:
		return fmt.Errorf("render: %s: unknown template %q", page.Path, page.Template)
	}
	return r.execute(w, page.Template, v)
}

// RenderListing writes a category listing with the given filter state.
// items are shown as given; callers filter them beforehand.
func (r *Renderer) RenderListing(w io.Writer, cat models.Category, items []models.ContentItem, allTags []string, state filter.State) error {
	return r.execute(w, models.TemplateListing, r.listing(cat, items, allTags, state, false))
}

func (r *Renderer) listing(cat models.Category, items []models.ContentItem, allTags []string, state filter.State, client bool) *view {
	v := r.newView(cat.Label(), home, crumb{Label: cat.Label()})
	p := links.CategoryPath(cat)
	filtered := "No " + string(cat) + " match your current filters."
	v.Listing = listingView{
		Category:  cat,
		Path:      p,
		Items:     items,
		AllTags:   allTags,
		State:     state,
		NoResults: noResults{Message: filtered},
		Filtered:  filtered,
	}
	if client {
		v.Listing.ClientFilter = true
		v.Listing.ScriptURL = r.URL("/"+ScriptPath) + "?v=" + r.jsVer
	}
	if !state.IsEmpty() {
		v.Listing.NoResults.ClearURL = r.URL(p)
	} else {
		v.Listing.NoResults.Message = "No " + string(cat) + " yet."
	}
	return v
}

func (r *Renderer) execute(w io.Writer, id models.TemplateID, v *view) error {
	t, ok := r.pages[id]
	if !ok {
		return fmt.Errorf("render: template %q not loaded", id)
	}
	// Render into a buffer so a failing template never leaves a partial page.
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render: execute %s: %w", id, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
