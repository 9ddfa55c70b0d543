package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nutcracker/showrunner/internal/audio"
	"github.com/nutcracker/showrunner/internal/config"
	"github.com/nutcracker/showrunner/internal/led"
	"github.com/nutcracker/showrunner/internal/pattern"
	"github.com/nutcracker/showrunner/internal/player"
)

var (
	playLoop  bool
	playMusic string
)

var playCmd = &cobra.Command{
	Use:   "play <pattern>",
	Short: "Play a single pattern on the configured outputs",
	Long: `Play one pattern file, relative to SHOW_CONTENT_ROOT, without the queue.
With --loop the pattern repeats until interrupted. With --music the audio
file is started alongside and stopped when the lights finish.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(config.Load(), args[0])
	},
}

func init() {
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "repeat until interrupted")
	playCmd.Flags().StringVar(&playMusic, "music", "", "audio file to play alongside")
}

func play(cfg config.Config, rel string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := pattern.NewStore(cfg.ContentRoot)
	p, err := store.Load(rel)
	if err != nil {
		return err
	}

	layout := layoutOf(cfg)
	for _, w := range p.Validate(layout.Size()) {
		log.Printf("WARNING: %s", w)
	}

	outputs, closers, err := openSinks(cfg, layout)
	if err != nil {
		return err
	}
	defer closeAll(closers)
	strip := led.NewStrip(layout, outputs, brightnessLevel(cfg))

	if playMusic != "" {
		proc, err := startMusic(cfg, playMusic)
		if err != nil {
			log.Printf("Audio failed to start: %v", err)
		} else {
			defer proc.Kill()
		}
	}

	pl := player.New(strip, cfg.LoopPause)
	log.Printf("Playing %s (%d frames, %v)", rel, len(p.Frames), p.Duration)
	var res player.Result
	if playLoop {
		res = pl.PlayLoop(ctx, p)
	} else {
		res = pl.PlayOnce(ctx, p)
	}
	log.Printf("Playback %s", res)
	return nil
}

func startMusic(cfg config.Config, rel string) (audio.Process, error) {
	path, err := pattern.ResolvePath(cfg.ContentRoot, rel)
	if err != nil {
		return nil, err
	}
	launcher, err := audio.NewCommand(cfg.AudioCommand)
	if err != nil {
		return nil, err
	}
	return launcher.Start(path, cfg.Volume)
}
