package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names a session lifecycle event.
type Kind string

const (
	KindSessionCreated  Kind = "session_created"
	KindAgentActivated  Kind = "agent_activated"
	KindCallbackSent    Kind = "callback_sent"
	KindSessionsEvicted Kind = "sessions_evicted"
)

// Event is one entry on the operator feed.
type Event struct {
	Kind       Kind      `json:"kind"`
	SessionID  string    `json:"sessionId,omitempty"`
	SessionIDs []string  `json:"sessionIds,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const subscriberBuffer = 64

// Hub fans session events out to operator consoles. Publish never blocks:
// a subscriber whose buffer is full loses events rather than stalling
// message processing.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a consumer. Cancel with Unsubscribe using the
// returned id; the channel is closed on unsubscribe.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
