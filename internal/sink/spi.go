package sink

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/nutcracker/showrunner/internal/led"
)

// WS2812 timing at 2.4 MHz: each data bit becomes three SPI bits, 110 for
// a one and 100 for a zero. The reset latch needs >50us of low line.
const (
	ws2812Clock      = 2400 * physic.KiloHertz
	ws2812ResetBytes = 24
)

// SPI drives a WS2812 (NeoPixel) chain from an SPI MOSI pin.
type SPI struct {
	dimmer
	port spi.PortCloser
	conn spi.Conn
	buf  []byte
}

// OpenSPI initializes the host drivers and opens dev, e.g. "/dev/spidev0.0"
// or "SPI0.0".
func OpenSPI(dev string) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open SPI port %s: %w", dev, err)
	}
	c, err := p.Connect(ws2812Clock, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect SPI port %s: %w", dev, err)
	}
	return &SPI{port: p, conn: c}, nil
}

// Push implements led.Sink.
func (s *SPI) Push(px []led.Color) error {
	s.buf = EncodeWS2812(s.buf[:0], s.scale(px))
	if err := s.conn.Tx(s.buf, nil); err != nil {
		return fmt.Errorf("SPI write: %w", err)
	}
	return nil
}

// Close releases the port.
func (s *SPI) Close() error {
	return s.port.Close()
}

// EncodeWS2812 appends the SPI bitstream for px to dst, in GRB order,
// followed by the reset latch.
func EncodeWS2812(dst []byte, px []led.Color) []byte {
	for _, c := range px {
		dst = appendWSByte(dst, c.G)
		dst = appendWSByte(dst, c.R)
		dst = appendWSByte(dst, c.B)
	}
	for i := 0; i < ws2812ResetBytes; i++ {
		dst = append(dst, 0)
	}
	return dst
}

func appendWSByte(dst []byte, b byte) []byte {
	var bits uint32
	for i := 7; i >= 0; i-- {
		bits <<= 3
		if b&(1<<uint(i)) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	return append(dst, byte(bits>>16), byte(bits>>8), byte(bits))
}
