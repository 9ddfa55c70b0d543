package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// Type names a change notification.
type Type string

const (
	QueueChanged Type = "queue_changed"
	ShowStarted  Type = "show_started"
	ShowEnded    Type = "show_ended"
)

// ShowRef identifies a show in a notification.
type ShowRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is a single notification.
type Event struct {
	Type      Type      `json:"type"`
	Show      *ShowRef  `json:"show,omitempty"`
	QueueSize int       `json:"queue_size"`
	Outcome   string    `json:"outcome,omitempty"`
	Time      time.Time `json:"time"`
}

// Forwarder relays events outside the process.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

// Subscriber receives events from the hub.
type Subscriber struct {
	C    chan Event
	done chan struct{}
}

// Done is closed when the subscriber is removed.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// ForwardBuffer is how many events may wait for a slow forwarder before
// new ones are dropped.
const ForwardBuffer = 64

// ForwardTimeout bounds a single Forward call.
const ForwardTimeout = time.Second

// relay feeds one forwarder from its own goroutine.
type relay struct {
	f  Forwarder
	ch chan Event
}

// Hub fans events out to subscribers and forwarders. Publish never waits
// on either.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	relays      []*relay
	closed      bool
	wg          sync.WaitGroup
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// AddForwarder registers an external relay. Events reach f in publish
// order on a dedicated goroutine.
func (h *Hub) AddForwarder(f Forwarder) {
	r := &relay{f: f, ch: make(chan Event, ForwardBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.relays = append(h.relays, r)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for ev := range r.ch {
			ctx, cancel := context.WithTimeout(context.Background(), ForwardTimeout)
			if err := r.f.Forward(ctx, ev); err != nil {
				log.Printf("Event forward failed: %v", err)
			}
			cancel()
		}
	}()
}

// Close stops the forwarder goroutines after they drain what is queued.
// Later publishes still reach subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for _, r := range h.relays {
		close(r.ch)
	}
	h.relays = nil
	h.mu.Unlock()
	h.wg.Wait()
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		C:    make(chan Event, 32),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and signals it to stop.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[s]
	delete(h.subscribers, s)
	h.mu.Unlock()
	if ok {
		close(s.done)
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish delivers ev without blocking. Slow subscribers and stalled
// forwarders miss events.
func (h *Hub) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		select {
		case s.C <- ev:
		default:
			// subscriber too slow, drop event
		}
	}
	for _, r := range h.relays {
		select {
		case r.ch <- ev:
		default:
			log.Printf("Event forwarder backed up, dropping %s", ev.Type)
		}
	}
}
