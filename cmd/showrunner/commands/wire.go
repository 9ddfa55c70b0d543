package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/nutcracker/showrunner/internal/config"
	"github.com/nutcracker/showrunner/internal/events"
	"github.com/nutcracker/showrunner/internal/led"
	"github.com/nutcracker/showrunner/internal/show"
	"github.com/nutcracker/showrunner/internal/sink"
)

func layoutOf(cfg config.Config) led.Layout {
	return led.Layout{Width: cfg.MatrixWidth, Height: cfg.MatrixHeight, Serpentine: cfg.Serpentine}
}

// brightnessLevel converts the configured 0.0-1.0 fraction to a sink level.
func brightnessLevel(cfg config.Config) uint8 {
	return show.PercentToLevel(int(cfg.Brightness*100 + 0.5))
}

// openSinks builds the configured outputs. The returned closers release
// hardware handles and must be closed after the strip is cleared.
func openSinks(cfg config.Config, layout led.Layout) (sink.Tee, []io.Closer, error) {
	var (
		tee     sink.Tee
		closers []io.Closer
	)
	fail := func(err error) (sink.Tee, []io.Closer, error) {
		closeAll(closers)
		return nil, nil, err
	}
	for _, name := range cfg.Sinks() {
		switch name {
		case "opc":
			tee = append(tee, sink.NewOPC(cfg.OPCAddr, uint8(cfg.OPCChannel)))
		case "spi":
			s, err := sink.OpenSPI(cfg.SPIDevice)
			if err != nil {
				return fail(err)
			}
			tee = append(tee, s)
			closers = append(closers, s)
		case "serial":
			s, err := sink.OpenSerial(cfg.SerialDevice, cfg.SerialBaud)
			if err != nil {
				return fail(err)
			}
			tee = append(tee, s)
			closers = append(closers, s)
		case "bridge":
			b, err := sink.StartBridge(cfg.BridgeCmd)
			if err != nil {
				return fail(err)
			}
			tee = append(tee, b)
			closers = append(closers, b)
		case "terminal":
			tee = append(tee, sink.NewTerminal(os.Stdout, layout))
		case "none":
			tee = append(tee, sink.Discard{})
		default:
			return fail(fmt.Errorf("unknown sink %q", name))
		}
		log.Printf("LED output: %s", name)
	}
	return tee, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Printf("Close LED output: %v", err)
		}
	}
}

// dialEvents attaches the Redis forwarder when configured. Failure to
// connect is logged and notifications stay in-process.
func dialEvents(ctx context.Context, cfg config.Config, hub *events.Hub) io.Closer {
	if cfg.RedisURL == "" {
		return nil
	}
	fwd, err := events.DialRedis(ctx, cfg.RedisURL, cfg.RedisChannel)
	if err != nil {
		log.Printf("Redis not available, events stay local: %v", err)
		return nil
	}
	hub.AddForwarder(fwd)
	log.Printf("Forwarding events to Redis channel %s", cfg.RedisChannel)
	return fwd
}

// catalogPath resolves the catalog file against the content root.
func catalogPath(cfg config.Config) string {
	if filepath.IsAbs(cfg.Catalog) {
		return cfg.Catalog
	}
	return filepath.Join(cfg.ContentRoot, cfg.Catalog)
}
