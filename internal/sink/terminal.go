package sink

import (
	"bufio"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/nutcracker/showrunner/internal/led"
)

// Terminal renders the matrix with ANSI truecolor backgrounds, two
// characters per LED, redrawing in place.
type Terminal struct {
	dimmer
	layout led.Layout

	mu sync.Mutex
	w  io.Writer
}

// NewTerminal creates a terminal preview writing to w.
func NewTerminal(w io.Writer, layout led.Layout) *Terminal {
	return &Terminal{layout: layout, w: w}
}

// Push implements led.Sink.
func (t *Terminal) Push(px []led.Color) error {
	scaled := t.scale(px)

	t.mu.Lock()
	defer t.mu.Unlock()
	bw := bufio.NewWriter(t.w)
	bw.WriteString("\x1b[H")
	for y := 0; y < t.layout.Height; y++ {
		for x := 0; x < t.layout.Width; x++ {
			c := led.Black
			if i := t.layout.Index(x, y); i >= 0 && i < len(scaled) {
				c = scaled[i]
			}
			cell := color.BgRGB(int(c.R), int(c.G), int(c.B))
			cell.EnableColor()
			bw.WriteString(cell.Sprint("  "))
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
