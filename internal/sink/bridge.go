package sink

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/nutcracker/showrunner/internal/led"
)

// bridgePixel is one entry of a set_pixels command.
type bridgePixel struct {
	Index int   `json:"index"`
	R     uint8 `json:"r"`
	G     uint8 `json:"g"`
	B     uint8 `json:"b"`
}

type bridgeCommand struct {
	Command string        `json:"command"`
	Pixels  []bridgePixel `json:"pixels,omitempty"`
}

type bridgeReply struct {
	Status  string `json:"status"`
	Command string `json:"command,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Bridge drives LEDs through a helper process that reads one JSON command
// per line on stdin (set_pixels, show, clear) and answers on stdout.
type Bridge struct {
	dimmer

	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder

	stdin io.Closer
	cmd   *exec.Cmd
}

// NewBridge speaks the protocol on w. The caller owns w.
func NewBridge(w io.Writer) *Bridge {
	bw := bufio.NewWriter(w)
	return &Bridge{w: bw, enc: json.NewEncoder(bw)}
}

// StartBridge launches command (whitespace separated) and speaks the
// protocol over its stdin. Replies are read from stdout and errors logged.
func StartBridge(command string) (*Bridge, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty bridge command")
	}
	cmd := exec.Command(args[0], args[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start bridge %s: %w", args[0], err)
	}
	log.Printf("LED bridge started: %s (pid %d)", command, cmd.Process.Pid)

	go watchReplies(stdout)

	b := NewBridge(stdin)
	b.stdin = stdin
	b.cmd = cmd
	return b, nil
}

func watchReplies(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var rep bridgeReply
		if err := json.Unmarshal(sc.Bytes(), &rep); err != nil {
			log.Printf("LED bridge: %s", sc.Text())
			continue
		}
		switch {
		case rep.Error != "":
			log.Printf("LED bridge error: %s", rep.Error)
		case rep.Status == "error":
			log.Printf("LED bridge error: %s", rep.Message)
		case rep.Status == "initialized", rep.Status == "shutdown":
			log.Printf("LED bridge %s", rep.Status)
		}
	}
}

// Push implements led.Sink: one set_pixels with every pixel, then show.
func (b *Bridge) Push(px []led.Color) error {
	scaled := b.scale(px)
	pixels := make([]bridgePixel, len(scaled))
	for i, c := range scaled {
		pixels[i] = bridgePixel{Index: i, R: c.R, G: c.G, B: c.B}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.send(bridgeCommand{Command: "set_pixels", Pixels: pixels}); err != nil {
		return err
	}
	return b.send(bridgeCommand{Command: "show"})
}

// send must be called with mu held.
func (b *Bridge) send(c bridgeCommand) error {
	if err := b.enc.Encode(c); err != nil {
		return fmt.Errorf("bridge %s: %w", c.Command, err)
	}
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("bridge %s: %w", c.Command, err)
	}
	return nil
}

// Close clears the LEDs and, for a started helper, closes its stdin and
// waits briefly for it to exit.
func (b *Bridge) Close() error {
	b.mu.Lock()
	err := b.send(bridgeCommand{Command: "clear"})
	b.mu.Unlock()
	if b.cmd == nil {
		return err
	}

	b.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()
	select {
	case werr := <-done:
		if werr != nil {
			log.Printf("LED bridge exited: %v", werr)
		}
	case <-time.After(2 * time.Second):
		log.Printf("LED bridge did not exit, killing")
		b.cmd.Process.Kill()
		<-done
	}
	return err
}
