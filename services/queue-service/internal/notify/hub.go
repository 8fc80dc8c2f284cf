package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is the in-process change notifier: single writer path, many readers,
// at-least-once to every live subscriber. Nothing is persisted; a subscriber
// that attaches after an event never sees it and is expected to re-fetch
// state on (re)connect. The registry is process-local and rebuilt on restart.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

const defaultBuffer = 16

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   map[int]chan Event{},
		buffer: buffer,
	}
}

// Subscribe registers a reader. Filtering (by provider, or none for monitor
// boards) happens at the subscriber, keeping the publisher stateless.
// The returned cancel is idempotent and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.buffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Publish fans the event out without blocking the writer. A subscriber whose
// buffer is full has fallen too far behind for at-least-once to hold, so its
// channel is closed; it must resubscribe and reconcile with a full re-fetch.
func (h *Hub) Publish(_ context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Subscribers reports the current registry size.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
