package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nutcracker/showrunner/internal/audio"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Content
	ContentRoot string // patterns and music are resolved under this directory
	Catalog     string // shows.yml, relative to ContentRoot unless absolute
	IdlePattern string // pattern looped while the queue is empty

	// Matrix
	MatrixWidth  int
	MatrixHeight int
	Serpentine   bool
	Brightness   float64 // 0.0-1.0

	// Playback
	Volume       int           // 0-100
	Grace        time.Duration // slack past a show's duration before it is stopped
	IdlePoll     time.Duration // how often idle playback checks the queue
	LoopPause    time.Duration // pause between loop iterations
	IdleFallback time.Duration // fallback animation cycle while idle
	AudioCommand string        // external player, {file} and {volume} substituted

	// Output
	Sink         string // comma separated: opc, spi, serial, bridge, terminal, none
	OPCAddr      string
	OPCChannel   int
	SPIDevice    string
	SerialDevice string
	SerialBaud   int
	BridgeCmd    string

	// Notifications
	RedisURL     string // empty disables forwarding
	RedisChannel string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("SHOW_PORT", 8080),

		ContentRoot: envStr("SHOW_CONTENT_ROOT", "content"),
		Catalog:     envStr("SHOW_CATALOG", "shows.yml"),
		IdlePattern: envStr("SHOW_IDLE_PATTERN", "patterns/idle.json"),

		MatrixWidth:  envInt("SHOW_MATRIX_WIDTH", 32),
		MatrixHeight: envInt("SHOW_MATRIX_HEIGHT", 8),
		Serpentine:   envBool("SHOW_SERPENTINE", true),
		Brightness:   envFloat("SHOW_BRIGHTNESS", 0.3),

		Volume:       envInt("SHOW_VOLUME", 80),
		Grace:        envDuration("SHOW_GRACE_MS", 2*time.Second),
		IdlePoll:     envDuration("SHOW_IDLE_POLL_MS", 500*time.Millisecond),
		LoopPause:    envDuration("SHOW_LOOP_PAUSE_MS", 100*time.Millisecond),
		IdleFallback: envDuration("SHOW_IDLE_FALLBACK_MS", 30*time.Second),
		AudioCommand: envStr("SHOW_AUDIO_CMD", audio.DefaultCommand),

		Sink:         envStr("SHOW_SINK", "terminal"),
		OPCAddr:      envStr("SHOW_OPC_ADDR", "localhost:7890"),
		OPCChannel:   envInt("SHOW_OPC_CHANNEL", 0),
		SPIDevice:    envStr("SHOW_SPI_DEVICE", "/dev/spidev0.0"),
		SerialDevice: envStr("SHOW_SERIAL_DEVICE", "/dev/ttyACM0"),
		SerialBaud:   envInt("SHOW_SERIAL_BAUD", 921600),
		BridgeCmd:    envStr("SHOW_BRIDGE_CMD", "python3 scripts/led_driver.py"),

		RedisURL:     envStr("SHOW_REDIS_URL", ""),
		RedisChannel: envStr("SHOW_REDIS_CHANNEL", "nutcracker:events"),
	}
}

// Sinks splits the Sink list into trimmed, lower-case names.
func (c Config) Sinks() []string {
	var out []string
	for _, s := range strings.Split(c.Sink, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var knownSinks = map[string]bool{
	"opc": true, "spi": true, "serial": true, "bridge": true, "terminal": true, "none": true,
}

// Validate reports every impossible setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("SHOW_PORT %d out of range", c.Port))
	}
	if c.MatrixWidth <= 0 || c.MatrixHeight <= 0 {
		errs = append(errs, fmt.Errorf("matrix %dx%d must be at least 1x1", c.MatrixWidth, c.MatrixHeight))
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		errs = append(errs, fmt.Errorf("SHOW_BRIGHTNESS %.2f must be between 0 and 1", c.Brightness))
	}
	if c.Volume < 0 || c.Volume > 100 {
		errs = append(errs, fmt.Errorf("SHOW_VOLUME %d must be between 0 and 100", c.Volume))
	}
	if c.IdlePoll <= 0 {
		errs = append(errs, errors.New("SHOW_IDLE_POLL_MS must be positive"))
	}
	if c.Grace < 0 {
		errs = append(errs, errors.New("SHOW_GRACE_MS must not be negative"))
	}
	if c.OPCChannel < 0 || c.OPCChannel > 255 {
		errs = append(errs, fmt.Errorf("SHOW_OPC_CHANNEL %d out of range", c.OPCChannel))
	}
	sinks := c.Sinks()
	if len(sinks) == 0 {
		errs = append(errs, errors.New("SHOW_SINK is empty"))
	}
	for _, s := range sinks {
		if !knownSinks[s] {
			errs = append(errs, fmt.Errorf("unknown sink %q", s))
		}
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration reads a millisecond count.
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}
