package internal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/eduhub/internal/sse"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "src", "content")
	if err := os.MkdirAll(filepath.Join(root, "tools", "chatgpt"), 0o755); err != nil {
		t.Fatal(err)
	}
	md := "---\ntitle: ChatGPT\ndescription: Chat assistant\ntags: [AI]\n---\nBody\n"
	if err := os.WriteFile(filepath.Join(root, "tools", "chatgpt", "index.md"), []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Content.Root = root
	cfg.Site.OutputDir = filepath.Join(dir, "public")
	cfg.SQLite.Path = filepath.Join(dir, "eduhub.db")
	return cfg
}

func testRuntime(t *testing.T, cfg *Config) (*runtime, http.Handler) {
	t.Helper()
	rt, err := setup(WithConfig(cfg), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(rt.close)

	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	return rt, rt.router(broker)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestSetupRequiresConfig(t *testing.T) {
	if _, err := setup(WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestBuildCommand(t *testing.T) {
	cfg := testConfig(t)
	if err := Build(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, rel := range []string{"index.html", "tools/chatgpt/index.html", "tags/AI/index.html", "assets/site.css"} {
		if _, err := os.Stat(filepath.Join(cfg.Site.OutputDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestRouter(t *testing.T) {
	rt, h := testRuntime(t, testConfig(t))

	if w := get(t, h, "/health/live"); w.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", w.Code)
	}
	if w := get(t, h, "/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before build = %d, want 503", w.Code)
	}

	if _, err := rt.builder.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if w := get(t, h, "/health/ready"); w.Code != http.StatusOK {
		t.Errorf("ready after build = %d, want 200", w.Code)
	}

	w := get(t, h, "/tools/chatgpt/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ChatGPT") {
		t.Errorf("static page status = %d", w.Code)
	}

	w = get(t, h, "/tools/?q=nothing")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "No tools match your current filters.") {
		t.Errorf("dynamic listing status = %d", w.Code)
	}

	w = get(t, h, "/api/items?category=tools")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"title":"ChatGPT"`) {
		t.Errorf("api items status = %d body = %s", w.Code, w.Body.String())
	}

	if w := get(t, h, "/metrics"); w.Code != http.StatusNotFound {
		t.Errorf("metrics disabled status = %d, want 404", w.Code)
	}
}

func TestRouterPathPrefixAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Site.PathPrefix = "/hub"
	cfg.Metrics.Enabled = true
	rt, h := testRuntime(t, cfg)
	if _, err := rt.builder.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	w := get(t, h, "/hub/tools/chatgpt/")
	if w.Code != http.StatusOK {
		t.Errorf("prefixed page status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `href="/hub/tools/"`) {
		t.Errorf("links should carry the path prefix")
	}

	if w := get(t, h, "/hub/tools/"); w.Code != http.StatusOK {
		t.Errorf("prefixed listing status = %d, want 200", w.Code)
	}
	if w := get(t, h, "/hub"); w.Code != http.StatusMovedPermanently {
		t.Errorf("bare prefix status = %d, want 301", w.Code)
	}

	w = get(t, h, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "eduhub_build_duration_seconds") {
		t.Errorf("metrics status = %d", w.Code)
	}
}
