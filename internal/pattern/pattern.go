package pattern

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/nutcracker/showrunner/internal/led"
)

// Frame is a single timestamped instruction.
type Frame struct {
	At     time.Duration
	Effect Effect
}

// Pattern is a decoded animation. Frames are sorted by At.
type Pattern struct {
	Name        string
	Description string
	Duration    time.Duration
	Frames      []Frame
}

// Group is a batch of frames sharing one timestamp.
type Group struct {
	At     time.Duration
	Frames []Frame
}

// Groups batches consecutive frames with identical timestamps.
func (p *Pattern) Groups() []Group {
	var out []Group
	for _, f := range p.Frames {
		if n := len(out); n > 0 && out[n-1].At == f.At {
			out[n-1].Frames = append(out[n-1].Frames, f)
			continue
		}
		out = append(out, Group{At: f.At, Frames: []Frame{f}})
	}
	return out
}

// End returns the timestamp of the last frame.
func (p *Pattern) End() time.Duration {
	if len(p.Frames) == 0 {
		return 0
	}
	return p.Frames[len(p.Frames)-1].At
}

// ErrSchema marks a structurally invalid pattern document.
var ErrSchema = errors.New("pattern schema violation")

type rawPattern struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DurationMs  int64       `json:"durationMs"`
	Frames      *[]rawFrame `json:"frames"`
}

type rawFrame struct {
	TimestampMs *int64  `json:"timestampMs"`
	Effect      string  `json:"effect"`
	Color       *string `json:"color"`
	LEDs        []int   `json:"leds"`
	StartColor  *string `json:"startColor"`
	EndColor    *string `json:"endColor"`
}

// Decode parses a pattern document. Frames are stably sorted by timestamp,
// so simultaneous instructions keep their file order. Per-frame authoring
// mistakes decode to Noop effects and are logged; only schema violations
// fail the whole document.
func Decode(r io.Reader) (*Pattern, error) {
	var raw rawPattern
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode pattern: %w", err)
	}
	if raw.Frames == nil {
		return nil, fmt.Errorf("%w: missing frames", ErrSchema)
	}
	if raw.DurationMs < 0 {
		return nil, fmt.Errorf("%w: negative durationMs %d", ErrSchema, raw.DurationMs)
	}

	p := &Pattern{
		Name:        raw.Name,
		Description: raw.Description,
		Duration:    time.Duration(raw.DurationMs) * time.Millisecond,
		Frames:      make([]Frame, 0, len(*raw.Frames)),
	}
	for i, rf := range *raw.Frames {
		if rf.TimestampMs == nil {
			return nil, fmt.Errorf("%w: frame %d has no timestampMs", ErrSchema, i)
		}
		if *rf.TimestampMs < 0 {
			return nil, fmt.Errorf("%w: frame %d has negative timestampMs %d", ErrSchema, i, *rf.TimestampMs)
		}
		eff := decodeEffect(rf)
		if n, ok := eff.(Noop); ok {
			log.Printf("Pattern %q frame %d at %dms ignored: %s", raw.Name, i, *rf.TimestampMs, n.Reason)
		}
		p.Frames = append(p.Frames, Frame{
			At:     time.Duration(*rf.TimestampMs) * time.Millisecond,
			Effect: eff,
		})
	}

	sort.SliceStable(p.Frames, func(a, b int) bool {
		return p.Frames[a].At < p.Frames[b].At
	})
	return p, nil
}

func decodeEffect(rf rawFrame) Effect {
	switch rf.Effect {
	case "fill":
		if rf.Color == nil {
			return Noop{Reason: "fill without color"}
		}
		return Fill{Color: parseColor(*rf.Color)}
	case "set":
		if rf.Color == nil {
			return Noop{Reason: "set without color"}
		}
		if rf.LEDs == nil {
			return Noop{Reason: "set without leds"}
		}
		return Set{Color: parseColor(*rf.Color), LEDs: rf.LEDs}
	case "clear":
		if rf.LEDs == nil {
			return Clear{All: true}
		}
		return Clear{LEDs: rf.LEDs}
	case "gradient":
		if rf.StartColor == nil || rf.EndColor == nil {
			return Noop{Reason: "gradient without startColor/endColor"}
		}
		if len(rf.LEDs) == 0 {
			return Noop{Reason: "gradient without leds"}
		}
		return Gradient{
			Start: parseColor(*rf.StartColor),
			End:   parseColor(*rf.EndColor),
			LEDs:  rf.LEDs,
		}
	default:
		return Noop{Reason: fmt.Sprintf("unknown effect %q", rf.Effect)}
	}
}

// parseColor is the color parse boundary: malformed input becomes black.
func parseColor(s string) led.Color {
	c, err := led.ParseHex(s)
	if err != nil {
		log.Printf("Malformed color, using black: %v", err)
		return led.Black
	}
	return c
}

// Warning is an authoring problem that does not stop playback.
type Warning struct {
	Frame   int
	At      time.Duration
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("frame %d @%dms: %s", w.Frame, w.At.Milliseconds(), w.Message)
}

// Validate lists authoring problems for a strip of size pixels.
func (p *Pattern) Validate(size int) []Warning {
	var out []Warning
	for i, f := range p.Frames {
		var leds []int
		switch e := f.Effect.(type) {
		case Noop:
			out = append(out, Warning{i, f.At, e.Reason})
		case Set:
			leds = e.LEDs
		case Clear:
			leds = e.LEDs
		case Gradient:
			leds = e.LEDs
		}
		for _, idx := range leds {
			if idx < 0 || idx >= size {
				out = append(out, Warning{i, f.At, fmt.Sprintf("led %d outside [0,%d)", idx, size)})
			}
		}
		if p.Duration > 0 && f.At > p.Duration {
			out = append(out, Warning{i, f.At, fmt.Sprintf("after durationMs %d", p.Duration.Milliseconds())})
		}
	}
	return out
}
