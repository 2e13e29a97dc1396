package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects whatever is buffered on ch after a short settle.
func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func count(msgs []string, eventType string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: "+eventType+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeGraphCreated, Data: map[string]string{"accession": "P12345"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: graph.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"accession":"P12345"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishGraphEvent_Throttle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishGraphEvent("created", "P1")
	b.PublishGraphEvent("deleted", "P2")
	b.PublishGraphEvent("renamed", "P3")

	msgs := drain(ch)
	if n := count(msgs, TypeGraphCreated) + count(msgs, TypeGraphDeleted); n != 2 {
		t.Errorf("graph events = %d, want 2", n)
	}
	if n := count(msgs, TypeGraphsChanged); n != 1 {
		t.Errorf("graphs.changed events = %d, want 1 (throttled)", n)
	}
	if len(msgs) != 3 {
		t.Errorf("unknown kinds must be ignored, got %q", msgs)
	}
}

func TestPublishBoundsBuilt_ThrottledPerAccession(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishBoundsBuilt("P1", 10, 3*time.Millisecond)
	b.PublishBoundsBuilt("P1", 4, time.Millisecond)
	b.PublishBoundsBuilt("P2", 10, time.Millisecond)

	msgs := drain(ch)
	if n := count(msgs, TypeBoundsBuilt); n != 2 {
		t.Fatalf("bounds.built events = %d, want 2: %q", n, msgs)
	}
	if !strings.Contains(msgs[0], `"accession":"P1"`) || !strings.Contains(msgs[0], `"k":10`) {
		t.Errorf("first event = %q", msgs[0])
	}

	// Deleting a graph resets its throttle.
	b.PublishGraphEvent("deleted", "P1")
	b.PublishBoundsBuilt("P1", 10, time.Millisecond)
	if n := count(drain(ch), TypeBoundsBuilt); n != 1 {
		t.Errorf("bounds.built after delete = %d, want 1", n)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishGraphEvent("updated", "Q9")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: graph.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

	// No-ops after close.
	b.Publish(Event{Type: TypeGraphUpdated, Data: map[string]string{"accession": "P1"}})
	b.PublishGraphEvent("updated", "P1")
	b.PublishBoundsBuilt("P1", 1, 0)
}
