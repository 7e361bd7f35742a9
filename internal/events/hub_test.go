package events

import (
	"testing"
	"time"
)

func TestHubPublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	h.Publish(Event{Kind: KindAgentActivated, SessionID: "s1"})

	select {
	case ev := <-ch:
		if ev.Kind != KindAgentActivated || ev.SessionID != "s1" {
			t.Fatalf("event = %+v, want agent_activated for s1", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Fatalf("event timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	// Publish never blocks, even well past the subscriber buffer.
	for i := 0; i < subscriberBuffer*2; i++ {
		h.Publish(Event{Kind: KindSessionCreated, SessionID: "s"})
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()
	h.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Fatalf("channel still open after Unsubscribe")
	}
	if h.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", h.SubscriberCount())
	}
	// Publishing with no subscribers is a no-op.
	h.Publish(Event{Kind: KindCallbackSent})
}
