// Package adc reads the potentiometer as a 10-bit value.
// The real implementation reads a Linux IIO channel from sysfs.
// The fake implementation allows testing without hardware.
package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sweeney/cylon-meter/internal/logic"
)

// Reader produces analog readings in [0, logic.FullScale].
type Reader interface {
	Read() (uint16, error)
	Close() error
}

// DefaultDevice is the IIO device directory of the first ADC.
const DefaultDevice = "/sys/bus/iio/devices/iio:device0"

// DefaultChannel is the ADC input the potentiometer wiper is connected to.
const DefaultChannel = 3

// IIOReader reads a raw IIO voltage channel and rescales it to 10 bits.
type IIOReader struct {
	path string
	bits int
}

// NewIIOReader opens channel ch of the IIO device at dir. bits is the native
// resolution of the converter; readings are shifted to 10 bits.
func NewIIOReader(dir string, ch, bits int) (*IIOReader, error) {
	if bits < 1 || bits > 16 {
		return nil, fmt.Errorf("unsupported ADC resolution %d bits", bits)
	}
	path := filepath.Join(dir, fmt.Sprintf("in_voltage%d_raw", ch))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open adc channel: %w", err)
	}
	return &IIOReader{path: path, bits: bits}, nil
}

// Read performs one conversion.
func (r *IIOReader) Read() (uint16, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse adc value %q: %w", strings.TrimSpace(string(data)), err)
	}
	return Scale(raw, r.bits), nil
}

// Close releases nothing; sysfs files are opened per read.
func (r *IIOReader) Close() error {
	return nil
}

// Scale converts a raw reading of the given resolution to 10 bits,
// saturating at logic.FullScale.
func Scale(raw uint64, bits int) uint16 {
	switch {
	case bits > 10:
		raw >>= uint(bits - 10)
	case bits < 10:
		raw <<= uint(10 - bits)
	}
	if raw > logic.FullScale {
		raw = logic.FullScale
	}
	return uint16(raw)
}
