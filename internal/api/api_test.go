package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/starford/eduhub/internal/catalog"
	"github.com/starford/eduhub/internal/contentservice"
	"github.com/starford/eduhub/internal/testutil"
)

// testEnv sets up a temp content tree, SQLite DB, service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) http.Handler {
	t.Helper()
	root, store := testutil.TestContent(t)
	testutil.WriteContent(t, root, "tools/chatgpt/index.md", "---\ntitle: ChatGPT\ndescription: Chat assistant\ntags: [ai, writing]\ndate: 2024-02-01\n---\nbody\n")
	testutil.WriteContent(t, root, "tools/scratch.md", "---\ntitle: Scratch\ndescription: Block coding\ntags: [robotics]\ndate: 2024-01-01\n---\n")
	testutil.WriteContent(t, root, "videos/intro.md", "---\ntitle: Intro\ndescription: Getting started\ntags: [ai]\nyoutubeLink: https://youtu.be/dQw4w9WgXcQ\n---\n")

	db := testutil.TestDB(t)
	svc := contentservice.NewService(store, db)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := svc.Reindex(context.Background(), logger); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	return NewRouter(svc, authEnabled, token, sseHandler)
}

func get(t *testing.T, router http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v (%s)", target, err, w.Body.String())
		}
	}
	return w.Code
}

func TestListItems(t *testing.T) {
	router := testEnv(t, "")

	var resp ItemListResponse
	if code := get(t, router, "/items?category=tools", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Total != 2 || resp.Items[0].Title != "ChatGPT" {
		t.Errorf("items = %+v", resp)
	}
}

func TestListItems_TagUnion(t *testing.T) {
	router := testEnv(t, "")

	var resp ItemListResponse
	get(t, router, "/items?tag=robotics&tag=writing", &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
}

func TestListItems_Search(t *testing.T) {
	router := testEnv(t, "")

	var resp ItemListResponse
	get(t, router, "/items?q=GETTING", &resp)
	if resp.Total != 1 || resp.Items[0].Title != "Intro" {
		t.Errorf("items = %+v", resp)
	}
}

func TestListItems_BadCategory(t *testing.T) {
	router := testEnv(t, "")
	if code := get(t, router, "/items?category=podcasts", nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestGetItem(t *testing.T) {
	router := testEnv(t, "")

	var d ItemDetail
	id := catalog.ItemID("videos/intro.md")
	if code := get(t, router, "/items/"+id, &d); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if d.VideoID != "dQw4w9WgXcQ" || !d.Capabilities.HasVideoEmbed {
		t.Errorf("detail = %+v", d)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	router := testEnv(t, "")
	if code := get(t, router, "/items/nope", nil); code != http.StatusNotFound {
		t.Errorf("missing item = %d, want 404", code)
	}
}

func TestTags(t *testing.T) {
	router := testEnv(t, "")

	var tags TagListResponse
	get(t, router, "/tags", &tags)
	if len(tags.Tags) != 3 || tags.Tags[0] != "ai" {
		t.Errorf("tags = %v", tags.Tags)
	}

	var counts TagCountResponse
	get(t, router, "/tags/counts?category=tools", &counts)
	if len(counts.Tags) != 3 {
		t.Errorf("counts = %+v", counts.Tags)
	}
	get(t, router, "/tags/counts", &counts)
	if counts.Tags[0].Tag != "ai" || counts.Tags[0].Count != 2 {
		t.Errorf("top = %+v", counts.Tags[0])
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp SearchResponse
	if code := get(t, router, "/search?q=Scratch", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Results) != 1 || resp.Results[0].Slug != "/tools/scratch/" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")
	if code := get(t, router, "/search", nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestYouTubeEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp YouTubeResponse
	get(t, router, "/youtube?url=https://www.youtube.com/watch?v%3DdQw4w9WgXcQ", &resp)
	if resp.ID != "dQw4w9WgXcQ" || resp.EmbedURL == "" {
		t.Errorf("resp = %+v", resp)
	}
	get(t, router, "/youtube?url=https://example.com/watch?v%3Dshort", &resp)
	if resp.ID != "" {
		t.Errorf("short id accepted: %+v", resp)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	if code := get(t, router, "/items", nil); code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// sseStub writes headers and blocks until the request context is done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret", sseStub)
	if code := get(t, router, "/events", nil); code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_NotMountedWithoutBroker(t *testing.T) {
	router := testEnv(t, "")
	if code := get(t, router, "/events", nil); code != http.StatusNotFound {
		t.Errorf("events without broker = %d, want 404", code)
	}
}
