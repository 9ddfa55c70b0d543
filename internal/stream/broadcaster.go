package stream

import (
	"sync"

	"github.com/nutcracker/showrunner/internal/led"
)

// Broadcaster fans out pushed LED frames to N preview listeners. It
// implements led.Sink so it can sit next to the hardware sink in a Tee.
type Broadcaster struct {
	layout led.Layout

	mu         sync.RWMutex
	listeners  map[*Listener]struct{}
	last       []byte
	brightness uint8
}

// Listener receives frames from the broadcaster.
type Listener struct {
	C    chan []byte // packed RGB, one triple per LED in strip order
	done chan struct{}
	once sync.Once
}

// Done is closed once the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster for a matrix of the given layout.
func NewBroadcaster(layout led.Layout) *Broadcaster {
	return &Broadcaster{
		layout:     layout,
		listeners:  make(map[*Listener]struct{}),
		brightness: 255,
	}
}

// Layout returns the matrix geometry previews should render.
func (b *Broadcaster) Layout() led.Layout { return b.layout }

// Subscribe registers a new listener. The most recent frame, if any, is
// delivered first so new viewers do not start on a blank matrix.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []byte, 64), // ~3 seconds at 20 pushes/s
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	if b.last != nil {
		l.C <- b.last
	}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// SetBrightness implements led.Sink.
func (b *Broadcaster) SetBrightness(v uint8) {
	b.mu.Lock()
	b.brightness = v
	b.mu.Unlock()
}

// Push implements led.Sink. Slow listeners get frames dropped rather than
// blocking the strip.
func (b *Broadcaster) Push(px []led.Color) error {
	b.mu.Lock()
	frame := make([]byte, 0, len(px)*3)
	for _, c := range px {
		c = c.Scale(b.brightness)
		frame = append(frame, c.R, c.G, c.B)
	}
	b.last = frame
	for l := range b.listeners {
		select {
		case l.C <- frame:
		default:
			// listener too slow, drop frame to keep playback moving
		}
	}
	b.mu.Unlock()
	return nil
}
