package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// DefaultCommand plays a file with ffplay. {file} and {volume} (0-100) are
// substituted per argument.
const DefaultCommand = "ffplay -nodisp -autoexit -loglevel error -volume {volume} {file}"

// Launcher starts the external audio player for one show.
type Launcher interface {
	Start(path string, volume int) (Process, error)
}

// Process is a running audio player.
type Process interface {
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err returns the exit error after Done is closed.
	Err() error
	// Kill terminates the process. Killing an exited process is not an error.
	Kill() error
}

// Command launches an OS process built from a template.
type Command struct {
	args []string
}

// NewCommand parses a whitespace-separated command template.
func NewCommand(template string) (*Command, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, errors.New("empty audio command")
	}
	return &Command{args: args}, nil
}

// Args expands the template for path and volume.
func (c *Command) Args(path string, volume int) []string {
	volume = ClampVolume(volume)
	r := strings.NewReplacer("{file}", path, "{volume}", strconv.Itoa(volume))
	out := make([]string, len(c.args))
	for i, a := range c.args {
		out[i] = r.Replace(a)
	}
	return out
}

// Start launches the player. Output is discarded.
func (c *Command) Start(path string, volume int) (Process, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file %s: %w", path, err)
	}
	args := c.Args(path, volume)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p, nil
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu  sync.Mutex
	err error
}

func (p *process) Done() <-chan struct{} { return p.done }

func (p *process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill audio player: %w", err)
	}
	<-p.done
	return nil
}

// ClampVolume limits v to 0-100.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
