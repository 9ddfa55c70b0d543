package show

import (
	"sync"
	"time"

	"github.com/nutcracker/showrunner/internal/events"
)

// Show pairs a pattern with an audio track.
type Show struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Duration    time.Duration `json:"duration"`
	MusicPath   string        `json:"music"`
	PatternPath string        `json:"pattern"`
}

func (s Show) ref() *events.ShowRef {
	return &events.ShowRef{ID: s.ID, Name: s.Name}
}

// Queue is an unbounded FIFO of shows, safe for concurrent producers.
type Queue struct {
	mu    sync.Mutex
	items []Show
}

// Push appends s.
func (q *Queue) Push(s Show) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, s)
	return len(q.items)
}

// Pop removes the head of the queue.
func (q *Queue) Pop() (Show, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Show{}, false
	}
	s := q.items[0]
	q.items[0] = Show{}
	q.items = q.items[1:]
	return s, true
}

// Len returns the number of queued shows.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot copies the queue contents in play order.
func (q *Queue) Snapshot() []Show {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Show(nil), q.items...)
}
