package led

import (
	"log"
	"sync"
)

// Sink pushes a frame to physical (or virtual) LEDs. Implementations apply
// the brightness scalar at push time.
type Sink interface {
	Push(px []Color) error
	SetBrightness(b uint8)
}

// Strip owns the frame buffer and the sink. Every buffer mutation and
// every push happens under one lock, so pushes never interleave.
type Strip struct {
	layout Layout
	sink   Sink

	mu         sync.Mutex
	buf        *Buffer
	brightness uint8
	pushes     uint64
}

// NewStrip creates a strip for layout driving sink at the given brightness.
func NewStrip(layout Layout, sink Sink, brightness uint8) *Strip {
	s := &Strip{
		layout:     layout,
		sink:       sink,
		buf:        NewBuffer(layout.Size()),
		brightness: brightness,
	}
	sink.SetBrightness(brightness)
	return s
}

// Layout returns the matrix geometry.
func (s *Strip) Layout() Layout { return s.layout }

// Size is the number of pixels in the buffer.
func (s *Strip) Size() int { return s.buf.Len() }

// Draw mutates the buffer with fn and pushes the result.
func (s *Strip) Draw(fn func(*Buffer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.buf)
	s.push()
}

// Clear blacks out the buffer and pushes it.
func (s *Strip) Clear() {
	s.Draw(func(b *Buffer) { b.Clear() })
}

// SetBrightness changes the global brightness; it takes effect on the next push.
func (s *Strip) SetBrightness(b uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = b
	s.sink.SetBrightness(b)
}

// Brightness returns the current brightness scalar.
func (s *Strip) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Snapshot copies the current buffer contents.
func (s *Strip) Snapshot() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Snapshot()
}

// Pushes returns how many frames have been pushed to the sink.
func (s *Strip) Pushes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

// push must be called with mu held.
func (s *Strip) push() {
	s.pushes++
	if err := s.sink.Push(s.buf.Snapshot()); err != nil {
		log.Printf("LED push failed: %v", err)
	}
}
