package sink

import (
	"fmt"
	"log"
	"sync"

	opc "github.com/kellydunn/go-opc"

	"github.com/nutcracker/showrunner/internal/led"
)

// OPC sends frames to an Open Pixel Control server such as fcserver.
type OPC struct {
	dimmer
	addr    string
	channel uint8

	mu     sync.Mutex
	client *opc.Client
}

// NewOPC creates a sink for the OPC server at addr. The connection is made
// on the first push and remade after a failed send.
func NewOPC(addr string, channel uint8) *OPC {
	return &OPC{addr: addr, channel: channel}
}

// Push implements led.Sink.
func (o *OPC) Push(px []led.Color) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client == nil {
		c := opc.NewClient()
		if err := c.Connect("tcp", o.addr); err != nil {
			return fmt.Errorf("connect to OPC server %s: %w", o.addr, err)
		}
		log.Printf("Connected to OPC server %s (channel %d)", o.addr, o.channel)
		o.client = c
	}

	m := opc.NewMessage(o.channel)
	m.SetLength(uint16(len(px) * 3))
	for i, c := range o.scale(px) {
		m.SetPixelColor(i, c.R, c.G, c.B)
	}
	if err := o.client.Send(m); err != nil {
		o.client = nil
		return fmt.Errorf("send to OPC server %s: %w", o.addr, err)
	}
	return nil
}
