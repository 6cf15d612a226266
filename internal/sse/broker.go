// Package sse implements a Server-Sent Events broker for live content and
// rebuild notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeContentCreated = "content.created"
	TypeContentUpdated = "content.updated"
	TypeContentDeleted = "content.deleted"
	TypeSiteRebuilt    = "site.rebuilt"
)

// clientBuffer is the number of undelivered frames a client may hold before
// it is dropped.
const clientBuffer = 64

var contentTypes = map[string]string{
	"created": TypeContentCreated,
	"updated": TypeContentUpdated,
	"deleted": TypeContentDeleted,
}

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// encode renders the event as one SSE frame.
func (e Event) encode() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", e.Type, payload), nil
}

// Broker fans events out to connected SSE clients.
//
// The client set belongs to a single goroutine; every public method is a
// request sent to it over a channel.
type Broker struct {
	heartbeat time.Duration

	join   chan chan []byte
	leave  chan chan []byte
	events chan Event
	counts chan chan int

	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewBroker starts a broker. Open streams receive a comment line every
// heartbeat so idle connections are not cut by proxies.
func NewBroker(heartbeat time.Duration) *Broker {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	b := &Broker{
		heartbeat: heartbeat,
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		events:    make(chan Event, 256),
		counts:    make(chan chan int),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)

	clients := make(map[chan []byte]struct{})
	drop := func(ch chan []byte) {
		if _, ok := clients[ch]; ok {
			delete(clients, ch)
			close(ch)
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range clients {
				drop(ch)
			}
			return
		case ch := <-b.join:
			clients[ch] = struct{}{}
		case ch := <-b.leave:
			drop(ch)
		case resp := <-b.counts:
			resp <- len(clients)
		case ev := <-b.events:
			frame, err := ev.encode()
			if err != nil {
				continue
			}
			for ch := range clients {
				select {
				case ch <- frame:
				default:
					// Slow consumer; it reconnects and resyncs.
					drop(ch)
				}
			}
		}
	}
}

// Close stops the broker and closes every client channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a client. The returned channel is closed when the
// client is dropped or the broker stops.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.counts <- resp:
	case <-b.done:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.done:
		return 0
	}
}

// Publish queues an event for every connected client.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// PublishContentEvent publishes a content file change. kind is "created",
// "updated" or "deleted"; anything else is ignored.
func (b *Broker) PublishContentEvent(kind, path string) {
	typ, ok := contentTypes[kind]
	if !ok {
		return
	}
	b.Publish(Event{Type: typ, Data: map[string]string{"path": path}})
}

// PublishBuild announces a finished rebuild.
func (b *Broker) PublishBuild(buildID string, pages int) {
	b.Publish(Event{Type: TypeSiteRebuilt, Data: map[string]any{"build_id": buildID, "pages": pages}})
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	for {
		var frame []byte
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			frame = []byte(": ping\n\n")
		case msg, open := <-ch:
			if !open {
				return
			}
			frame = msg
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		flusher.Flush()
	}
}
