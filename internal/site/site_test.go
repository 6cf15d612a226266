package site

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/index"
	"github.com/starford/eduhub/internal/models"
	"github.com/starford/eduhub/internal/render"
	"github.com/starford/eduhub/internal/storage"
	"github.com/starford/eduhub/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingRecorder struct {
	mu       sync.Mutex
	pages    map[string]int
	skipped  map[string]int
	outcomes []string
}

func (c *countingRecorder) ObserveBuild(_ time.Duration, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *countingRecorder) PageRendered(template string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pages == nil {
		c.pages = map[string]int{}
	}
	c.pages[template]++
}

func (c *countingRecorder) ItemSkipped(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.skipped == nil {
		c.skipped = map[string]int{}
	}
	c.skipped[reason]++
}

func seed(t *testing.T, root string) {
	t.Helper()
	testutil.WriteContent(t, root, "tools/chatgpt/index.md",
		"---\ntitle: ChatGPT\ndescription: Chat assistant\ntags: [ai, writing]\ngithub: https://github.com/openai\ndate: 2024-03-01\n---\nBody.\n")
	testutil.WriteContent(t, root, "videos/intro.md",
		"---\ntitle: Intro Video\ndescription: Getting started\ntags: [ai]\nyoutubeLink: https://www.youtube.com/watch?v=dQw4w9WgXcQ\ndate: 2024-02-01\n---\n")
	testutil.WriteContent(t, root, "lessons/basics.md",
		"---\ntitle: Basics\ndescription: First lesson\ntags: [writing]\ndate: 2024-01-01\n---\n")
}

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(render.Options{Title: "Hub"})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r
}

func readOut(t *testing.T, out storage.Provider, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out.Root(), filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestPagePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/", "index.html"},
		{"/tools/", "tools/index.html"},
		{"/tools/chatgpt/", "tools/chatgpt/index.html"},
		{"/tags/ai/", "tags/ai/index.html"},
	}
	for _, tt := range tests {
		if got := PagePath(tt.in); got != tt.want {
			t.Errorf("PagePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	root, content := testutil.TestContent(t)
	seed(t, root)
	testutil.WriteContent(t, root, "drafts/notes.md", "# not published\n")
	out := testutil.TestOutput(t)

	stale := filepath.Join(out.Root(), "old.html")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := &countingRecorder{}
	b := NewBuilder(content, out, newRenderer(t), Options{
		Workers:  2,
		BaseURL:  "https://example.org/",
		Recorder: rec,
		Logger:   quietLogger(),
	})
	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if rep.BuildID == "" {
		t.Error("BuildID is empty")
	}
	if rep.Items != 3 {
		t.Errorf("Items = %d, want 3", rep.Items)
	}
	if rep.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", rep.Skipped)
	}
	// home + 3 listings + tag index + 2 tags + 3 items
	if rep.Pages != 10 {
		t.Errorf("Pages = %d, want 10", rep.Pages)
	}
	if rep.Outcome != "success" {
		t.Errorf("Outcome = %q, want %q", rep.Outcome, "success")
	}

	for _, rel := range []string{
		"index.html",
		"tools/index.html",
		"videos/index.html",
		"lessons/index.html",
		"tools/chatgpt/index.html",
		"videos/intro/index.html",
		"lessons/basics/index.html",
		"tags/index.html",
		"tags/ai/index.html",
		"tags/writing/index.html",
		"assets/site.css",
		"assets/listing.js",
	} {
		if _, err := os.Stat(filepath.Join(out.Root(), filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale output not cleared: %v", err)
	}

	if got := readOut(t, out, "tools/chatgpt/index.html"); !strings.Contains(got, "ChatGPT") {
		t.Errorf("tool page missing title")
	}

	sm := readOut(t, out, "sitemap.xml")
	for _, want := range []string{
		"<loc>https://example.org/</loc>",
		"<loc>https://example.org/tools/chatgpt/</loc>",
		"<loc>https://example.org/tags/ai/</loc>",
	} {
		if !strings.Contains(sm, want) {
			t.Errorf("sitemap missing %s", want)
		}
	}

	if rec.pages["tool"] != 1 || rec.pages["tag"] != 2 || rec.pages["listing"] != 3 {
		t.Errorf("pages recorded = %v", rec.pages)
	}
	if rec.skipped["unclassified"] != 1 {
		t.Errorf("skipped recorded = %v", rec.skipped)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != "success" {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestBuildConflict(t *testing.T) {
	root, content := testutil.TestContent(t)
	testutil.WriteContent(t, root, "tools/foo.md", testutil.Item("Foo File", "d"))
	testutil.WriteContent(t, root, "tools/foo/index.md", testutil.Item("Foo Dir", "d"))
	out := testutil.TestOutput(t)

	b := NewBuilder(content, out, newRenderer(t), Options{Logger: quietLogger()})
	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", rep.Conflicts)
	}
	if rep.Outcome != "partial" {
		t.Errorf("Outcome = %q, want %q", rep.Outcome, "partial")
	}
	// tools/foo.md sorts before tools/foo/index.md and wins.
	if got := readOut(t, out, "tools/foo/index.html"); !strings.Contains(got, "Foo File") {
		t.Errorf("first claimant should win the path")
	}
	if _, err := os.Stat(filepath.Join(out.Root(), "sitemap.xml")); !os.IsNotExist(err) {
		t.Errorf("sitemap written without base url")
	}
}

func TestBuildTagPathConflict(t *testing.T) {
	root, content := testutil.TestContent(t)
	testutil.WriteContent(t, root, "tools/x.md", testutil.Item("X", "d", `"."`, `"../videos"`, "python"))
	out := testutil.TestOutput(t)

	b := NewBuilder(content, out, newRenderer(t), Options{BaseURL: "https://example.org", Logger: quietLogger()})
	rep, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.Conflicts != 2 {
		t.Errorf("Conflicts = %d, want 2", rep.Conflicts)
	}
	if rep.Outcome != "partial" {
		t.Errorf("Outcome = %q, want %q", rep.Outcome, "partial")
	}
	if got := readOut(t, out, "tags/index.html"); strings.Contains(got, "Content tagged with") {
		t.Errorf("tags index overwritten by a tag page")
	}
	if got := readOut(t, out, "videos/index.html"); strings.Contains(got, "Content tagged with") {
		t.Errorf("videos listing overwritten by a tag page")
	}
	if _, err := os.Stat(filepath.Join(out.Root(), "tags", "python", "index.html")); err != nil {
		t.Errorf("python tag page missing: %v", err)
	}
	sm := readOut(t, out, "sitemap.xml")
	if strings.Contains(sm, "tags/./") || strings.Contains(sm, "tags/../") {
		t.Errorf("sitemap lists an unnormalised tag path: %s", sm)
	}
}

func TestBuildSyncsIndex(t *testing.T) {
	root, content := testutil.TestContent(t)
	seed(t, root)
	db := testutil.TestDB(t)

	b := NewBuilder(content, testutil.TestOutput(t), newRenderer(t), Options{DB: db, Logger: quietLogger()})
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	items, total, err := db.ListItems(index.ListQuery{Limit: -1})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Errorf("indexed %d items (total %d), want 3", len(items), total)
	}
}

func TestBuildCanceled(t *testing.T) {
	root, content := testutil.TestContent(t)
	seed(t, root)
	rec := &countingRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(content, testutil.TestOutput(t), newRenderer(t), Options{Recorder: rec, Logger: quietLogger()})
	rep, err := b.Build(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if rep.Outcome != "canceled" {
		t.Errorf("Outcome = %q, want %q", rep.Outcome, "canceled")
	}
}

func TestSitemap(t *testing.T) {
	data, err := Sitemap("https://example.org/", "/hub/", []string{"/", "/tools/a/"})
	if err != nil {
		t.Fatalf("Sitemap: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "<?xml") {
		t.Errorf("missing xml header: %q", s)
	}
	if !strings.Contains(s, `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`) {
		t.Errorf("missing namespace: %q", s)
	}
	if !strings.Contains(s, "<loc>https://example.org/hub/</loc>") || !strings.Contains(s, "<loc>https://example.org/hub/tools/a/</loc>") {
		t.Errorf("unexpected locations: %q", s)
	}
}

func TestSitemapEscapesPaths(t *testing.T) {
	data, err := Sitemap("https://example.org", "", []string{"/tags/a b/", "/tags/what?/", "/tags/c#/"})
	if err != nil {
		t.Fatalf("Sitemap: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		"<loc>https://example.org/tags/a%20b/</loc>",
		"<loc>https://example.org/tags/what%3F/</loc>",
		"<loc>https://example.org/tags/c%23/</loc>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("sitemap missing %s: %q", want, s)
		}
	}
}

func TestListingHandler(t *testing.T) {
	root, content := testutil.TestContent(t)
	seed(t, root)
	testutil.WriteContent(t, root, "tools/grammarly.md", testutil.Item("Grammarly", "Grammar checker", "writing"))
	db := testutil.TestDB(t)
	if err := index.Sync(db, content, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc := contentservice.NewService(content, db)
	h := ListingHandler(newRenderer(t), svc, models.CategoryTool)

	get := func(target string) string {
		t.Helper()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", target, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
		return w.Body.String()
	}

	body := get("/tools/")
	if !strings.Contains(body, "ChatGPT") || !strings.Contains(body, "Grammarly") {
		t.Errorf("unfiltered listing missing items")
	}

	body = get("/tools/?tag=ai")
	if !strings.Contains(body, "ChatGPT") || strings.Contains(body, "Grammarly") {
		t.Errorf("tag filter not applied")
	}

	body = get("/tools/?q=grammar")
	if strings.Contains(body, "ChatGPT") || !strings.Contains(body, "Grammarly") {
		t.Errorf("search filter not applied")
	}

	body = get("/tools/?q=nothing-matches")
	if !strings.Contains(body, "No tools match your current filters.") {
		t.Errorf("missing no-results message")
	}
}

type fakeBuilder struct {
	calls atomic.Int32
}

func (f *fakeBuilder) Build(context.Context) (*Report, error) {
	n := f.calls.Add(1)
	return &Report{BuildID: "b", Pages: int(n)}, nil
}

func TestRebuilderDebounces(t *testing.T) {
	fb := &fakeBuilder{}
	built := make(chan *Report, 4)
	r := NewRebuilder(fb, 50*time.Millisecond, quietLogger(), func(rep *Report) { built <- rep })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	for i := 0; i < 5; i++ {
		r.Notify("updated", "tools/a.md")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-built:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for rebuild")
	}
	time.Sleep(150 * time.Millisecond)
	if got := fb.calls.Load(); got != 1 {
		t.Errorf("builds = %d, want 1", got)
	}

	r.Notify("deleted", "tools/a.md")
	select {
	case <-built:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for second rebuild")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}
