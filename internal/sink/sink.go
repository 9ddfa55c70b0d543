// Package sink implements led.Sink for the hardware and virtual outputs the
// show runner can drive.
package sink

import (
	"errors"
	"sync/atomic"

	"github.com/nutcracker/showrunner/internal/led"
)

// dimmer holds the brightness scalar for a sink. Sinks scale a copy of the
// frame at push time so the strip's buffer keeps full-intensity colors.
// The zero value is full brightness.
type dimmer struct {
	cut atomic.Uint32 // 255 - level
}

// SetBrightness implements led.Sink.
func (d *dimmer) SetBrightness(b uint8) { d.cut.Store(uint32(255 - b)) }

// Brightness returns the current scalar.
func (d *dimmer) Brightness() uint8 { return uint8(255 - d.cut.Load()) }

func (d *dimmer) scale(px []led.Color) []led.Color {
	b := d.Brightness()
	out := make([]led.Color, len(px))
	for i, c := range px {
		out[i] = c.Scale(b)
	}
	return out
}

// Tee pushes every frame to several sinks.
type Tee []led.Sink

// Push sends px to every sink. All sinks are tried; errors are joined.
func (t Tee) Push(px []led.Color) error {
	var errs []error
	for _, s := range t {
		if err := s.Push(px); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetBrightness forwards b to every sink.
func (t Tee) SetBrightness(b uint8) {
	for _, s := range t {
		s.SetBrightness(b)
	}
}

// Discard drops every frame.
type Discard struct{}

func (Discard) Push([]led.Color) error { return nil }
func (Discard) SetBrightness(uint8)    {}
