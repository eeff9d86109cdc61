// Package config loads the cylon-meter configuration from TOML.
package config

import (
	"encoding"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/sweeney/cylon-meter/internal/adc"
	"github.com/sweeney/cylon-meter/internal/gpio"
	"github.com/sweeney/cylon-meter/internal/logic"
)

// Output backends.
const (
	OutputGPIO   = "gpio"
	OutputSerial = "serial"
)

// Config is the daemon configuration.
type Config struct {
	Output OutputConfig `toml:"output"`
	Button ButtonConfig `toml:"button"`
	ADC    ADCConfig    `toml:"adc"`
	MQTT   MQTTConfig   `toml:"mqtt"`
	HTTP   HTTPConfig   `toml:"http"`
}

// OutputConfig selects and configures the LED surface.
type OutputConfig struct {
	// Backend is either "gpio" or "serial".
	Backend string `toml:"backend"`
	// Chip is the GPIO character device, e.g. gpiochip0.
	Chip string `toml:"chip"`
	// Pins are the line offsets of LEDs 0..9, left to right.
	Pins []int `toml:"pins"`
	// Device is the serial bridge device, e.g. /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the serial bridge baud rate.
	Baud int `toml:"baud"`
}

// ButtonConfig configures the overlay-suppress button.
type ButtonConfig struct {
	Chip string `toml:"chip"`
	Pin  int    `toml:"pin"`
}

// ADCConfig configures the potentiometer input.
type ADCConfig struct {
	// Device is the IIO device directory.
	Device string `toml:"device"`
	// Channel is the in_voltageN_raw channel number.
	Channel int `toml:"channel"`
	// Bits is the converter's native resolution.
	Bits int `toml:"bits"`
	// Interval is the pause between conversions.
	Interval Duration `toml:"interval"`
	// Retry is the pause after a failed conversion.
	Retry Duration `toml:"retry"`
}

// MQTTConfig configures telemetry. An empty broker disables it.
type MQTTConfig struct {
	Broker    string   `toml:"broker"`
	ClientID  string   `toml:"client_id"`
	Heartbeat Duration `toml:"heartbeat"`
}

// HTTPConfig configures the status page. An empty address disables it.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	pins := make([]int, len(gpio.DefaultLEDPins))
	copy(pins, gpio.DefaultLEDPins)

	return &Config{
		Output: OutputConfig{
			Backend: OutputGPIO,
			Chip:    gpio.DefaultChip,
			Pins:    pins,
			Baud:    115200,
		},
		Button: ButtonConfig{
			Chip: gpio.DefaultChip,
			Pin:  gpio.DefaultButtonPin,
		},
		ADC: ADCConfig{
			Device:   adc.DefaultDevice,
			Channel:  adc.DefaultChannel,
			Bits:     10,
			Interval: Duration(10 * time.Millisecond),
			Retry:    Duration(time.Second),
		},
		MQTT: MQTTConfig{
			ClientID:  "cylon-meter",
			Heartbeat: Duration(15 * time.Minute),
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Output.Backend {
	case OutputGPIO:
		if len(c.Output.Pins) != logic.NumLEDs {
			return errors.Errorf("output.pins: need %d pins, got %d", logic.NumLEDs, len(c.Output.Pins))
		}
		seen := make(map[int]int, len(c.Output.Pins))
		for i, p := range c.Output.Pins {
			if p < 0 {
				return errors.Errorf("output.pins[%d]: negative offset %d", i, p)
			}
			if j, ok := seen[p]; ok {
				return errors.Errorf("output.pins[%d]: offset %d already used by LED %d", i, p, j)
			}
			seen[p] = i
		}
		if c.Output.Chip == c.Button.Chip {
			if j, ok := seen[c.Button.Pin]; ok {
				return errors.Errorf("button.pin: offset %d already used by LED %d", c.Button.Pin, j)
			}
		}
	case OutputSerial:
		if c.Output.Device == "" {
			return errors.New("output.device: required for serial backend")
		}
		if c.Output.Baud <= 0 {
			return errors.Errorf("output.baud: invalid %d", c.Output.Baud)
		}
	default:
		return errors.Errorf("output.backend: unknown backend %q", c.Output.Backend)
	}

	if c.Button.Pin < 0 {
		return errors.Errorf("button.pin: negative offset %d", c.Button.Pin)
	}
	if c.ADC.Bits < 1 || c.ADC.Bits > 16 {
		return errors.Errorf("adc.bits: unsupported resolution %d", c.ADC.Bits)
	}
	if c.ADC.Interval < 0 || c.ADC.Retry < 0 {
		return errors.New("adc: interval and retry must not be negative")
	}
	if c.MQTT.Heartbeat < 0 {
		return errors.New("mqtt.heartbeat: must not be negative")
	}
	return nil
}

// Duration is a time.Duration that can be parsed from TOML.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Parse decodes a configuration on top of the defaults. Keys missing from
// the file keep their default values.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// Load reads the configuration file at path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open config file")
	}
	defer f.Close()

	return Parse(f)
}
