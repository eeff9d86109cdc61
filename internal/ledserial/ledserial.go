// Package ledserial drives the LED array through a microcontroller bridge on
// a serial port. Every surface write is sent as one frame holding the full
// LED state, so the bridge never shows a partially applied update.
package ledserial

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"go.bug.st/serial"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// Magic starts every frame.
const Magic byte = 0xC5

// FrameSize is the encoded length of a frame: magic, 16-bit mask, checksum.
const FrameSize = 4

// EncodeFrame encodes the pattern as magic, a bitmask with bit i set when
// LED i is on, and the low byte of the IEEE CRC32 of the preceding bytes.
func EncodeFrame(p logic.Pattern) [FrameSize]byte {
	var mask uint16
	for i, on := range p {
		if on {
			mask |= 1 << uint(i)
		}
	}

	var f [FrameSize]byte
	f[0] = Magic
	Endianness.PutUint16(f[1:3], mask)
	f[3] = uint8(crc32.ChecksumIEEE(f[:3]))
	return f
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(f [FrameSize]byte) (logic.Pattern, error) {
	var p logic.Pattern
	if f[0] != Magic {
		return p, fmt.Errorf("bad frame magic %#02x", f[0])
	}
	if f[3] != uint8(crc32.ChecksumIEEE(f[:3])) {
		return p, fmt.Errorf("frame checksum mismatch")
	}
	mask := Endianness.Uint16(f[1:3])
	if mask>>logic.NumLEDs != 0 {
		return p, fmt.Errorf("frame mask %#04x addresses more than %d LEDs", mask, logic.NumLEDs)
	}
	for i := range p {
		p[i] = mask&(1<<uint(i)) != 0
	}
	return p, nil
}

// Surface is a display surface backed by a serial LED bridge.
type Surface struct {
	w     io.WriteCloser
	state logic.Pattern
}

// Open opens the serial device and clears the bridge's LEDs.
func Open(device string, baud int) (*Surface, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port: %w", err)
	}
	s := NewSurface(port)
	if err := s.ClearAll(); err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// NewSurface wraps an already open writer. It does not write anything.
func NewSurface(w io.WriteCloser) *Surface {
	return &Surface{w: w}
}

func (s *Surface) send() error {
	f := EncodeFrame(s.state)
	if _, err := s.w.Write(f[:]); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// SetAll turns every LED on.
func (s *Surface) SetAll() error {
	for i := range s.state {
		s.state[i] = true
	}
	return s.send()
}

// ClearAll turns every LED off.
func (s *Surface) ClearAll() error {
	s.state = logic.Pattern{}
	return s.send()
}

// Toggle inverts LED i.
func (s *Surface) Toggle(i int) error {
	s.state[i] = !s.state[i]
	return s.send()
}

// Set turns LED i on.
func (s *Surface) Set(i int) error {
	s.state[i] = true
	return s.send()
}

// Pattern returns the last sent state.
func (s *Surface) Pattern() logic.Pattern {
	return s.state
}

// Close blanks the bridge and closes the port.
func (s *Surface) Close() error {
	clearErr := s.ClearAll()
	if err := s.w.Close(); err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return clearErr
}
