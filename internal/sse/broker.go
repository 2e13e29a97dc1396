// Package sse streams graph and bound cache events to HTTP clients as
// Server-Sent Events.
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
	TypeGraphCreated  = "graph.created"
	TypeGraphUpdated  = "graph.updated"
	TypeGraphDeleted  = "graph.deleted"
	TypeGraphsChanged = "graphs.changed"
	TypeBoundsBuilt   = "bounds.built"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type graphEventReq struct {
	kind      string
	accession string
}

type boundsEventReq struct {
	accession string
	k         int
	took      time.Duration
}

// Broker manages SSE client connections and broadcasts events.
//
// A single loop goroutine owns the client set and the throttle state; public
// methods talk to it over channels.
type Broker struct {
	throttle time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	graphEventCh  chan graphEventReq
	boundsEventCh chan boundsEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. throttle is the minimum gap between two
// graphs.changed events and between two bounds.built events of one accession.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		throttle:      throttle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		graphEventCh:  make(chan graphEventReq, 256),
		boundsEventCh: make(chan boundsEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastChanged time.Time
	lastBuilt := make(map[string]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client, drop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.graphEventCh:
			data := map[string]string{"accession": req.accession}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeGraphCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeGraphUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeGraphDeleted, Data: data})
				delete(lastBuilt, req.accession)
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastChanged) >= b.throttle {
				lastChanged = now
				broadcast(Event{Type: TypeGraphsChanged, Data: map[string]string{}})
			}

		case req := <-b.boundsEventCh:
			now := time.Now()
			if now.Sub(lastBuilt[req.accession]) < b.throttle {
				continue
			}
			lastBuilt[req.accession] = now
			broadcast(Event{Type: TypeBoundsBuilt, Data: map[string]any{
				"accession": req.accession,
				"k":         req.k,
				"took_ms":   req.took.Milliseconds(),
			}})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
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
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishGraphEvent publishes a graph file change (kind is created, updated
// or deleted) followed by a throttled graphs.changed event.
func (b *Broker) PublishGraphEvent(kind, accession string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.graphEventCh <- graphEventReq{kind: kind, accession: accession}:
	case <-b.stopped:
	}
}

// PublishBoundsBuilt announces a finished bound build, at most once per
// throttle interval per accession.
func (b *Broker) PublishBoundsBuilt(accession string, k int, took time.Duration) {
	if b.closed.Load() {
		return
	}
	select {
	case b.boundsEventCh <- boundsEventReq{accession: accession, k: k, took: took}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
