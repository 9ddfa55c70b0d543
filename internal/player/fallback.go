package player

import (
	"context"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/nutcracker/showrunner/internal/led"
)

// DefaultTick is the fallback animator's frame interval.
const DefaultTick = 50 * time.Millisecond

// phaseFunc draws the frame for elapsed time since the phase started.
// span is the phase length.
type phaseFunc func(buf *led.Buffer, l led.Layout, elapsed, span time.Duration)

// Fallback draws procedural animations when no pattern is available.
type Fallback struct {
	strip  *led.Strip
	tick   time.Duration
	phases []phaseFunc
}

// NewFallback creates the four-phase animator: traveling wave, pulse, row
// scan, column scan. A non-positive tick uses DefaultTick.
func NewFallback(strip *led.Strip, tick time.Duration) *Fallback {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Fallback{
		strip:  strip,
		tick:   tick,
		phases: []phaseFunc{wave, pulse, rowScan, columnScan},
	}
}

// Run animates for total, split evenly between the phases. It never runs
// past total and always leaves the strip dark.
func (f *Fallback) Run(ctx context.Context, total time.Duration) Result {
	start := time.Now()
	end := start.Add(total)
	span := total / time.Duration(len(f.phases))

	for i, phase := range f.phases {
		phaseStart := start.Add(time.Duration(i) * span)
		phaseEnd := phaseStart.Add(span)
		if i == len(f.phases)-1 {
			phaseEnd = end
		}
		if f.runPhase(ctx, phase, phaseStart, phaseEnd) == Cancelled {
			f.strip.Clear()
			return Cancelled
		}
	}
	f.strip.Clear()
	return Completed
}

func (f *Fallback) runPhase(ctx context.Context, draw phaseFunc, start, end time.Time) Result {
	if ctx.Err() != nil {
		return Cancelled
	}
	f.strip.Clear()

	layout := f.strip.Layout()
	span := end.Sub(start)
	for {
		now := time.Now()
		if !now.Before(end) {
			return Completed
		}
		elapsed := now.Sub(start)
		if elapsed < 0 {
			elapsed = 0
		}
		f.strip.Draw(func(buf *led.Buffer) {
			buf.Clear()
			draw(buf, layout, elapsed, span)
		})

		wait := f.tick
		if left := time.Until(end); left < wait {
			wait = left
		}
		if !sleep(ctx, wait) {
			return Cancelled
		}
	}
}

// wave runs a rainbow along the columns, one hue cycle per second.
func wave(buf *led.Buffer, l led.Layout, elapsed, _ time.Duration) {
	shift := elapsed.Seconds() * 360
	for x := 0; x < l.Width; x++ {
		hue := math.Mod(float64(x)*360/float64(max(l.Width, 1))+shift, 360)
		c := led.FromColorful(colorful.Hsv(hue, 1, 1))
		for _, i := range l.Column(x) {
			buf.Set(i, c)
		}
	}
}

var pulseColor = led.Color{R: 255, G: 40, B: 0}

// pulse breathes the whole matrix with a smoothstep envelope, 1.5s per breath.
func pulse(buf *led.Buffer, _ led.Layout, elapsed, _ time.Duration) {
	level := Smoothstep(triangle(elapsed.Seconds() / 1.5))
	buf.Fill(led.Black.Blend(pulseColor, level))
}

var scanColor = led.Color{R: 255, G: 255, B: 255}

// rowScan lights one row at a time, sweeping top to bottom and back.
func rowScan(buf *led.Buffer, l led.Layout, elapsed, span time.Duration) {
	if l.Height == 0 {
		return
	}
	y := sweep(elapsed, l.Height, 120*time.Millisecond)
	for _, i := range l.Row(y) {
		buf.Set(i, scanColor)
	}
}

// columnScan lights one column at a time, sweeping left to right and back.
func columnScan(buf *led.Buffer, l led.Layout, elapsed, span time.Duration) {
	if l.Width == 0 {
		return
	}
	x := sweep(elapsed, l.Width, 40*time.Millisecond)
	for _, i := range l.Column(x) {
		buf.Set(i, led.Color{R: 0, G: 160, B: 255})
	}
}

// sweep returns a ping-pong position in [0,n) advancing one step per step.
func sweep(elapsed time.Duration, n int, step time.Duration) int {
	if n <= 1 {
		return 0
	}
	period := 2 * (n - 1)
	pos := int(elapsed/step) % period
	if pos >= n {
		pos = period - pos
	}
	return pos
}
