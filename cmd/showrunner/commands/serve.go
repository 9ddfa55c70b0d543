package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutcracker/showrunner/internal/api"
	"github.com/nutcracker/showrunner/internal/audio"
	"github.com/nutcracker/showrunner/internal/config"
	"github.com/nutcracker/showrunner/internal/events"
	"github.com/nutcracker/showrunner/internal/led"
	"github.com/nutcracker/showrunner/internal/pattern"
	"github.com/nutcracker/showrunner/internal/player"
	"github.com/nutcracker/showrunner/internal/show"
	"github.com/nutcracker/showrunner/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the show queue and HTTP control API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(config.Load())
	},
}

func serve(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("showrunner starting up...")

	layout := layoutOf(cfg)
	outputs, closers, err := openSinks(cfg, layout)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	// Broadcaster: fan-out pushed frames to preview clients
	broadcaster := stream.NewBroadcaster(layout)
	strip := led.NewStrip(layout, append(outputs, broadcaster), brightnessLevel(cfg))

	store := pattern.NewStore(cfg.ContentRoot)
	catalog, err := show.LoadCatalog(catalogPath(cfg), store)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		log.Printf("No catalog at %s, only inline shows can be queued", catalogPath(cfg))
		catalog = nil
	} else {
		log.Printf("Catalog loaded: %d shows", len(catalog.Shows()))
	}

	launcher, err := audio.NewCommand(cfg.AudioCommand)
	if err != nil {
		return err
	}

	hub := events.NewHub()
	if fwd := dialEvents(ctx, cfg, hub); fwd != nil {
		defer fwd.Close()
	}
	defer hub.Close()

	orch := show.New(show.Config{
		IdlePattern:  cfg.IdlePattern,
		Grace:        cfg.Grace,
		IdlePoll:     cfg.IdlePoll,
		IdleFallback: cfg.IdleFallback,
		Volume:       cfg.Volume,
	}, strip, store, player.New(strip, cfg.LoopPause), player.NewFallback(strip, 0), launcher, hub)

	orchDone := make(chan struct{})
	go func() {
		defer close(orchDone)
		orch.Run(ctx)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: api.New(orch, catalog, broadcaster).Handler()}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
		defer done()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("showrunner live on %s (%dx%d matrix)", addr, layout.Width, layout.Height)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		cancel()
		<-orchDone
		return fmt.Errorf("HTTP server error: %w", err)
	}
	<-orchDone
	return nil
}
