package sink

import (
	"encoding/binary"
	"fmt"
	"log"

	"go.bug.st/serial"

	"github.com/nutcracker/showrunner/internal/led"
)

// Frame commands understood by the microcontroller firmware.
const (
	CmdPixels byte = 0x01
	CmdClear  byte = 0x02
)

var frameSync = [2]byte{0xAA, 0x55}

// Serial streams frames to a microcontroller over a serial port.
type Serial struct {
	dimmer
	port serial.Port
	name string
}

// OpenSerial opens the named device at baud.
func OpenSerial(name string, baud int) (*Serial, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	log.Printf("Serial port %s opened at %d baud", name, baud)
	return &Serial{port: p, name: name}, nil
}

// Push implements led.Sink.
func (s *Serial) Push(px []led.Color) error {
	scaled := s.scale(px)
	payload := make([]byte, 0, len(scaled)*3)
	for _, c := range scaled {
		payload = append(payload, c.R, c.G, c.B)
	}
	if _, err := s.port.Write(EncodeFrame(CmdPixels, payload)); err != nil {
		return fmt.Errorf("serial write to %s: %w", s.name, err)
	}
	return nil
}

// Close sends a clear frame and closes the port.
func (s *Serial) Close() error {
	if _, err := s.port.Write(EncodeFrame(CmdClear, nil)); err != nil {
		log.Printf("Serial clear on close: %v", err)
	}
	return s.port.Close()
}

// EncodeFrame builds [sync][len][cmd][payload][checksum]. len is the
// big-endian payload length; the checksum is the XOR of every byte from
// len through the end of the payload.
func EncodeFrame(cmd byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+6)
	out = append(out, frameSync[:]...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)))
	out = append(out, cmd)
	out = append(out, payload...)
	var sum byte
	for _, b := range out[2:] {
		sum ^= b
	}
	return append(out, sum)
}
