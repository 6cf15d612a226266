package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return ""
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "content.created", Data: map[string]string{"path": "tools/a.md"}})

	s := receive(t, ch)
	if !strings.Contains(s, "event: content.created") {
		t.Errorf("missing event type in %q", s)
	}
	if !strings.Contains(s, `"path":"tools/a.md"`) {
		t.Errorf("missing data in %q", s)
	}
}

func TestPublishContentEvent(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	tests := []struct {
		kind string
		want string
	}{
		{"created", "event: content.created"},
		{"updated", "event: content.updated"},
		{"deleted", "event: content.deleted"},
	}
	for _, tt := range tests {
		b.PublishContentEvent(tt.kind, "videos/v.md")
		if s := receive(t, ch); !strings.Contains(s, tt.want) {
			t.Errorf("PublishContentEvent(%q) = %q, want %q", tt.kind, s, tt.want)
		}
	}

	b.PublishContentEvent("renamed", "videos/v.md")
	b.PublishBuild("b1", 3)
	if s := receive(t, ch); !strings.Contains(s, "event: site.rebuilt") {
		t.Errorf("unknown kind should be ignored, got %q", s)
	}
}

func TestPublishBuild(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishBuild("abc", 12)
	s := receive(t, ch)
	if !strings.Contains(s, "event: site.rebuilt") {
		t.Errorf("missing event type in %q", s)
	}
	if !strings.Contains(s, `"build_id":"abc"`) || !strings.Contains(s, `"pages":12`) {
		t.Errorf("missing data in %q", s)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishContentEvent("updated", "lessons/x.md")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: content.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandlerHeartbeat(t *testing.T) {
	b := NewBroker(20 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), ": ping") {
		t.Errorf("expected heartbeat comment, got %q", w.Body.String())
	}
}

func TestSlowClientDropped(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()

	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	got := 0
	for range ch {
		got++
	}
	if got != 64 {
		t.Errorf("received %d messages before drop, want 64", got)
	}
	b.Unsubscribe(ch)
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(time.Second)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "content.updated", Data: map[string]string{"path": "x.md"}})
	b.PublishContentEvent("updated", "x.md")
	b.PublishBuild("x", 1)
	b.Close()
}
