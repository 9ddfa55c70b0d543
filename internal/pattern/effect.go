package pattern

import "github.com/nutcracker/showrunner/internal/led"

// Effect is one decoded instruction. The set of implementations is closed:
// Fill, Set, Clear, Gradient and Noop.
type Effect interface {
	Apply(buf *led.Buffer)
	Kind() string
}

// Fill sets every LED to Color.
type Fill struct {
	Color led.Color
}

func (Fill) Kind() string { return "fill" }

func (e Fill) Apply(buf *led.Buffer) { buf.Fill(e.Color) }

// Set writes Color to each listed LED. Indices outside the buffer are skipped.
type Set struct {
	Color led.Color
	LEDs  []int
}

func (Set) Kind() string { return "set" }

func (e Set) Apply(buf *led.Buffer) {
	for _, i := range e.LEDs {
		buf.Set(i, e.Color)
	}
}

// Clear blacks out the listed LEDs, or the whole buffer when All is set.
type Clear struct {
	All  bool
	LEDs []int
}

func (Clear) Kind() string { return "clear" }

func (e Clear) Apply(buf *led.Buffer) {
	if e.All {
		buf.Clear()
		return
	}
	for _, i := range e.LEDs {
		buf.Set(i, led.Black)
	}
}

// Gradient interpolates from Start to End by position within LEDs, not by
// LED index value: position 0 gets Start and the last position gets End.
type Gradient struct {
	Start led.Color
	End   led.Color
	LEDs  []int
}

func (Gradient) Kind() string { return "gradient" }

func (e Gradient) Apply(buf *led.Buffer) {
	n := len(e.LEDs)
	for pos, i := range e.LEDs {
		if n == 1 {
			buf.Set(i, e.Start)
			continue
		}
		buf.Set(i, e.Start.Blend(e.End, float64(pos)/float64(n-1)))
	}
}

// Noop stands in for an instruction that could not be used: an unknown
// effect name or a frame missing a field its effect requires.
type Noop struct {
	Reason string
}

func (Noop) Kind() string { return "noop" }

func (Noop) Apply(*led.Buffer) {}

// Apply runs one frame's effect against buf.
func Apply(buf *led.Buffer, f Frame) {
	if f.Effect == nil {
		return
	}
	f.Effect.Apply(buf)
}
