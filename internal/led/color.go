package led

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit RGB value as stored in pattern data. Brightness limiting
// is not applied here; sinks scale at push time.
type Color struct {
	R, G, B uint8
}

// Black is the "off" color.
var Black = Color{}

// ParseHex parses a "#RRGGBB" (or "RRGGBB") string.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Black, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	for _, r := range h {
		if !isHex(r) {
			return Black, fmt.Errorf("color %q: invalid hex digit %q", s, r)
		}
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return Black, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{r, g, b}, nil
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Hex formats the color as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// Blend linearly interpolates each channel from c to o. t is clamped to [0,1].
func (c Color) Blend(o Color, t float64) Color {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return o
	}
	r, g, b := c.colorful().BlendRgb(o.colorful(), t).Clamped().RGB255()
	return Color{r, g, b}
}

// Scale applies a 0..255 brightness scalar.
func (c Color) Scale(brightness uint8) Color {
	if brightness == 255 {
		return c
	}
	s := uint16(brightness)
	return Color{
		R: uint8(uint16(c.R) * s / 255),
		G: uint8(uint16(c.G) * s / 255),
		B: uint8(uint16(c.B) * s / 255),
	}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// FromColorful converts a go-colorful value, clamping out-of-gamut channels.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{r, g, b}
}
