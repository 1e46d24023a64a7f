// Package stream fans audit events out to live subscribers such as the
// admin audit feed.
package stream

import (
	"context"
	"sync"
	"time"
)

// Event is one audit record as seen by subscribers.
type Event struct {
	ID        string         `json:"audit_id"`
	Name      string         `json:"event"`
	RequestID string         `json:"request_id,omitempty"`
	ActorID   int64          `json:"actor_id,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	ActorRole string         `json:"actor_role,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	At        time.Time      `json:"at"`
}

// Hub fans events out to every active subscriber and keeps a short backlog
// for clients that connect late.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	recent  []Event
	backlog int
}

// New returns an empty hub remembering up to backlog events.
func New(backlog int) *Hub {
	if backlog < 0 {
		backlog = 0
	}
	return &Hub{
		subs:    make(map[int]chan Event),
		backlog: backlog,
	}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish fans evt out to all subscribers. Slow subscribers miss events
// rather than block the publisher.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	if h.backlog > 0 {
		h.recent = append(h.recent, evt)
		if over := len(h.recent) - h.backlog; over > 0 {
			h.recent = append(h.recent[:0:0], h.recent[over:]...)
		}
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Recent returns the backlog, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.recent))
	copy(out, h.recent)
	return out
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
