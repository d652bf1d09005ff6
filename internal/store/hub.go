package store

import (
	"sync"

	"paisa/internal/core"
)

// Hub fans transaction-list snapshots out to subscribers. The engine stays
// pull/pure; writers publish a fresh snapshot after every successful write
// and each dashboard stream re-runs the engine on what it receives.
//
// Delivery is latest-wins: a slow subscriber never blocks a writer, it just
// skips intermediate snapshots.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan []core.Transaction
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan []core.Transaction)}
}

// Subscribe registers for a user's snapshots. The returned cancel func must
// be called to release the subscription; the channel is closed by it.
func (h *Hub) Subscribe(userID string) (<-chan []core.Transaction, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan []core.Transaction, 1)
	id := h.next
	h.next++
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan []core.Transaction)
	}
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[userID][id]; ok {
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of the user. If a
// subscriber's buffer still holds an unread snapshot it is replaced.
func (h *Hub) Publish(userID string, snapshot []core.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[userID] {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot and retry with the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// SubscriberCount reports active subscriptions for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
