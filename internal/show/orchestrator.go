package show

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutcracker/showrunner/internal/audio"
	"github.com/nutcracker/showrunner/internal/events"
	"github.com/nutcracker/showrunner/internal/led"
	"github.com/nutcracker/showrunner/internal/pattern"
	"github.com/nutcracker/showrunner/internal/player"
)

// Config holds orchestrator timing and defaults.
type Config struct {
	IdlePattern  string        // pattern played in loop mode while the queue is empty
	Grace        time.Duration // added to a show's duration before it is cut off
	IdlePoll     time.Duration // how often idle playback checks the queue
	IdleFallback time.Duration // length of one fallback cycle when the idle pattern is unavailable
	Volume       int           // initial volume 0-100
}

// Defaults for zero Config fields.
const (
	DefaultGrace        = 2 * time.Second
	DefaultIdlePoll     = 500 * time.Millisecond
	DefaultIdleFallback = 30 * time.Second
)

// Status is a point-in-time view for UIs.
type Status struct {
	Current    *Show  `json:"current,omitempty"`
	Queue      []Show `json:"queue"`
	Volume     int    `json:"volume"`
	Brightness int    `json:"brightness"`
}

// Orchestrator plays queued shows one at a time and an idle pattern in
// between. It is the only writer of the strip while Run is active.
type Orchestrator struct {
	cfg      Config
	strip    *led.Strip
	store    *pattern.Store
	player   *player.Player
	fallback *player.Fallback
	audio    audio.Launcher
	hub      *events.Hub
	queue    Queue

	mu         sync.RWMutex
	current    *Show
	cancelShow context.CancelFunc
	volume     int
}

// New creates an orchestrator driving strip.
func New(cfg Config, strip *led.Strip, store *pattern.Store, pl *player.Player, fb *player.Fallback, launcher audio.Launcher, hub *events.Hub) *Orchestrator {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.IdlePoll <= 0 {
		cfg.IdlePoll = DefaultIdlePoll
	}
	if cfg.IdleFallback <= 0 {
		cfg.IdleFallback = DefaultIdleFallback
	}
	if hub == nil {
		hub = events.NewHub()
	}
	return &Orchestrator{
		cfg:      cfg,
		strip:    strip,
		store:    store,
		player:   pl,
		fallback: fb,
		audio:    launcher,
		hub:      hub,
		volume:   audio.ClampVolume(cfg.Volume),
	}
}

// Events returns the notification hub.
func (o *Orchestrator) Events() *events.Hub { return o.hub }

// Subscribe registers for queue-changed, show-started and show-ended
// notifications.
func (o *Orchestrator) Subscribe() *events.Subscriber { return o.hub.Subscribe() }

// Unsubscribe stops delivery to s.
func (o *Orchestrator) Unsubscribe(s *events.Subscriber) { o.hub.Unsubscribe(s) }

// Enqueue appends s to the queue, assigning an ID if it has none.
func (o *Orchestrator) Enqueue(s Show) Show {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	n := o.queue.Push(s)
	log.Printf("Queued show %q (queue: %d)", s.Name, n)
	o.hub.Publish(events.Event{Type: events.QueueChanged, QueueSize: n})
	return s
}

// Queued lists the waiting shows in play order.
func (o *Orchestrator) Queued() []Show {
	return o.queue.Snapshot()
}

// Current returns the show being played, if any.
func (o *Orchestrator) Current() (Show, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil {
		return Show{}, false
	}
	return *o.current, true
}

// Skip cancels the current show. It reports false when nothing is playing.
func (o *Orchestrator) Skip() bool {
	o.mu.RLock()
	cancel := o.cancelShow
	current := o.current
	o.mu.RUnlock()
	if cancel == nil {
		return false
	}
	log.Printf("Skipping show %q", current.Name)
	cancel()
	return true
}

// SetVolume sets the volume (0-100) used for the next audio launch.
func (o *Orchestrator) SetVolume(v int) {
	v = audio.ClampVolume(v)
	o.mu.Lock()
	o.volume = v
	o.mu.Unlock()
	log.Printf("Volume set to %d", v)
}

// Volume returns the current volume.
func (o *Orchestrator) Volume() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.volume
}

// SetBrightness sets the LED brightness as a percentage; it applies on the next push.
func (o *Orchestrator) SetBrightness(pct int) {
	o.strip.SetBrightness(PercentToLevel(pct))
	log.Printf("Brightness set to %d%%", clampPercent(pct))
}

// Brightness returns the LED brightness as a percentage.
func (o *Orchestrator) Brightness() int {
	return LevelToPercent(o.strip.Brightness())
}

// Status returns a snapshot of the orchestrator state.
func (o *Orchestrator) Status() Status {
	st := Status{
		Queue:      o.Queued(),
		Volume:     o.Volume(),
		Brightness: o.Brightness(),
	}
	if cur, ok := o.Current(); ok {
		st.Current = &cur
	}
	return st
}

// Run plays queued shows, falling back to the idle pattern whenever the
// queue is empty. Blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	log.Printf("Orchestrator started (idle pattern: %s)", o.cfg.IdlePattern)
	defer o.strip.Clear()
	for {
		if ctx.Err() != nil {
			return
		}
		if s, ok := o.queue.Pop(); ok {
			o.hub.Publish(events.Event{Type: events.QueueChanged, QueueSize: o.queue.Len()})
			o.play(ctx, s)
			continue
		}
		o.idle(ctx)
	}
}

// play runs one show: audio process and lights side by side, bounded by
// the show's duration plus grace.
func (o *Orchestrator) play(ctx context.Context, s Show) {
	showCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	o.current = &s
	o.cancelShow = cancel
	volume := o.volume
	o.mu.Unlock()

	log.Printf("Now playing: %s (duration: %v)", s.Name, s.Duration)
	o.hub.Publish(events.Event{Type: events.ShowStarted, Show: s.ref(), QueueSize: o.queue.Len()})

	proc := o.startAudio(s, volume)

	lightsDone := make(chan player.Result, 1)
	go func() {
		lightsDone <- o.playLights(showCtx, s)
	}()

	var audioDone <-chan struct{}
	if proc != nil {
		audioDone = proc.Done()
	}

	deadline := time.NewTimer(s.Duration + o.cfg.Grace)
	defer deadline.Stop()

	outcome := "completed"
	lightsPending := true
	audioPending := proc != nil
wait:
	for lightsPending || audioPending {
		select {
		case <-lightsDone:
			lightsPending = false
		case <-audioDone:
			audioPending = false
			audioDone = nil
			if err := proc.Err(); err != nil {
				log.Printf("Audio player for %q exited: %v", s.Name, err)
			}
		case <-showCtx.Done():
			outcome = "skipped"
			break wait
		case <-deadline.C:
			// Only the audio is cut; the lights run to the end of the
			// pattern unless the show is skipped.
			outcome = "timed out"
			log.Printf("Show %q exceeded %v, stopping audio", s.Name, s.Duration+o.cfg.Grace)
			if audioPending {
				o.killAudio(s, proc)
				audioPending = false
				audioDone = nil
			}
		}
	}

	if outcome != "skipped" && showCtx.Err() != nil {
		outcome = "skipped"
	}
	if audioPending {
		o.killAudio(s, proc)
	}
	// The next show must not start while this light session still owns
	// the strip.
	cancel()
	if lightsPending {
		<-lightsDone
	}
	if ctx.Err() != nil {
		outcome = "shutdown"
	}

	o.mu.Lock()
	o.current = nil
	o.cancelShow = nil
	o.mu.Unlock()

	log.Printf("Show %q ended (%s)", s.Name, outcome)
	o.hub.Publish(events.Event{Type: events.ShowEnded, Show: s.ref(), QueueSize: o.queue.Len(), Outcome: outcome})
}

func (o *Orchestrator) killAudio(s Show, proc audio.Process) {
	if err := proc.Kill(); err != nil {
		log.Printf("Kill audio player for %q: %v", s.Name, err)
	}
}

// startAudio launches the show's music. Failures are logged and the show
// continues with lights only.
func (o *Orchestrator) startAudio(s Show, volume int) audio.Process {
	if o.audio == nil || s.MusicPath == "" {
		return nil
	}
	path, err := pattern.ResolvePath(o.store.Root(), s.MusicPath)
	if err != nil {
		log.Printf("Audio for %q rejected: %v", s.Name, err)
		return nil
	}
	proc, err := o.audio.Start(path, volume)
	if err != nil {
		log.Printf("Audio for %q failed to start: %v", s.Name, err)
		return nil
	}
	return proc
}

// playLights plays the show's pattern once, or the fallback animator for
// the show's duration when the pattern cannot be loaded.
func (o *Orchestrator) playLights(ctx context.Context, s Show) player.Result {
	p, err := o.store.Load(s.PatternPath)
	if err != nil {
		log.Printf("WARNING: %v; running fallback animation for %v", err, s.Duration)
		return o.fallback.Run(ctx, s.Duration)
	}
	return o.player.PlayOnce(ctx, p)
}

// idle loops the idle pattern until the queue has something in it.
func (o *Orchestrator) idle(ctx context.Context) {
	idleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.playIdle(idleCtx)
	}()

	ticker := time.NewTicker(o.cfg.IdlePoll)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if o.queue.Len() > 0 {
				cancel()
				<-done
				return
			}
		case <-ctx.Done():
			cancel()
			<-done
			return
		}
	}
}

func (o *Orchestrator) playIdle(ctx context.Context) {
	if o.cfg.IdlePattern != "" {
		p, err := o.store.Load(o.cfg.IdlePattern)
		if err == nil {
			o.player.PlayLoop(ctx, p)
			return
		}
		log.Printf("WARNING: idle %v; using fallback animation", err)
	}
	for ctx.Err() == nil {
		o.fallback.Run(ctx, o.cfg.IdleFallback)
	}
}

// PercentToLevel maps a 0-100 UI brightness onto the 0-255 sink scale.
func PercentToLevel(pct int) uint8 {
	return uint8((clampPercent(pct)*255 + 50) / 100)
}

// LevelToPercent is the inverse of PercentToLevel.
func LevelToPercent(level uint8) int {
	return (int(level)*100 + 127) / 255
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
