package datastore

import (
	"sync"

	"github.com/Makepad-fr/amped/internal/model"
)

// Subscription is one live query. C is closed by Unsubscribe or when the
// store shuts down.
type Subscription struct {
	C <-chan Snapshot

	once   sync.Once
	cancel func()
}

// Unsubscribe releases the live query. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Hub fans snapshots out to subscribers. Each subscriber holds at most one
// pending snapshot; a newer one replaces it, so a slow reader always ends up
// with the latest state.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Snapshot)}
}

// Subscribe registers a subscriber and queues initial as its first snapshot.
func (h *Hub) Subscribe(initial Snapshot) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	id := h.nextID
	h.nextID++
	ch := make(chan Snapshot, 1)
	ch <- cloneSnapshot(initial)
	h.subs[id] = ch

	return &Subscription{
		C: ch,
		cancel: func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		},
	}, nil
}

// Publish delivers snap to every subscriber without blocking.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		// Only Publish sends, and it holds the lock, so after the drain
		// there is always room for the new snapshot.
		select {
		case <-ch:
		default:
		}
		ch <- cloneSnapshot(snap)
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later Subscribe calls fail with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true
}

func cloneSnapshot(s Snapshot) Snapshot {
	items := make([]model.Item, len(s.Items))
	copy(items, s.Items)
	return Snapshot{Items: items, IsSynced: s.IsSynced}
}
