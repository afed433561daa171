// Package hub implements the per-order broadcast topics behind the live
// order-status channel. Publish fans events out to every current subscriber
// of an order id; it never blocks the caller and never replays history.
package hub

import (
	"sync"
	"time"
)

// Event is one status change pushed to watchers of an order.
type Event struct {
	OrderID uint      `json:"order_id"`
	Status  string    `json:"status"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

const subscriberBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	topics map[uint]map[chan Event]struct{}
}

func New() *Hub {
	return &Hub{topics: make(map[uint]map[chan Event]struct{})}
}

// Subscribe registers a listener for an order's events. The returned cancel
// function releases the subscription; it is safe to call more than once.
func (h *Hub) Subscribe(orderID uint) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.topics[orderID]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.topics[orderID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[orderID]; ok {
				if _, live := subs[ch]; live {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(h.topics, orderID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber of e.OrderID. Slow subscribers whose
// buffer is full miss the event rather than stalling the publisher.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.topics[e.OrderID] {
		select {
		case ch <- e:
		default:
		}
	}
}

// CloseTopic closes every subscriber channel for an order. Called once the
// order reaches a terminal status.
func (h *Hub) CloseTopic(orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[orderID]
	if !ok {
		return
	}
	for ch := range subs {
		close(ch)
	}
	delete(h.topics, orderID)
}

// Subscribers reports how many listeners an order currently has.
func (h *Hub) Subscribers(orderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[orderID])
}
