package player

import (
	"context"
	"log"
	"time"

	"github.com/nutcracker/showrunner/internal/led"
	"github.com/nutcracker/showrunner/internal/pattern"
)

// Result is how a playback session ended.
type Result int

const (
	Completed Result = iota
	Cancelled
)

func (r Result) String() string {
	switch r {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// DefaultLoopPause separates iterations in loop mode.
const DefaultLoopPause = 100 * time.Millisecond

// Player walks a pattern's frames against the wall clock and pushes them
// to the strip.
type Player struct {
	strip     *led.Strip
	loopPause time.Duration
}

// New creates a player. A non-positive loopPause uses DefaultLoopPause.
func New(strip *led.Strip, loopPause time.Duration) *Player {
	if loopPause <= 0 {
		loopPause = DefaultLoopPause
	}
	return &Player{strip: strip, loopPause: loopPause}
}

// PlayOnce plays p a single time. The strip is left dark whichever way it ends.
func (pl *Player) PlayOnce(ctx context.Context, p *pattern.Pattern) Result {
	if pl.run(ctx, p.Groups()) == Cancelled {
		return pl.cancelled()
	}
	pl.strip.Clear()
	return Completed
}

// PlayLoop repeats p until ctx is cancelled. The buffer carries over between
// iterations so the loop seam shows no blank frame.
func (pl *Player) PlayLoop(ctx context.Context, p *pattern.Pattern) Result {
	groups := p.Groups()
	for {
		if pl.run(ctx, groups) == Cancelled {
			return pl.cancelled()
		}
		if !sleep(ctx, pl.loopPause) {
			return pl.cancelled()
		}
	}
}

// run applies each timestamp group at T0+At and pushes once per group.
func (pl *Player) run(ctx context.Context, groups []pattern.Group) Result {
	t0 := time.Now()
	for _, g := range groups {
		if ctx.Err() != nil {
			return Cancelled
		}
		if !sleep(ctx, time.Until(t0.Add(g.At))) {
			return Cancelled
		}
		if ctx.Err() != nil {
			return Cancelled
		}
		pl.strip.Draw(func(buf *led.Buffer) {
			for _, f := range g.Frames {
				pattern.Apply(buf, f)
			}
		})
	}
	return Completed
}

func (pl *Player) cancelled() Result {
	log.Printf("Playback cancelled, clearing strip")
	pl.strip.Clear()
	return Cancelled
}

// sleep waits for d or until ctx is done. It reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
