package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const DefaultConfigFile = "armctl.json"

// Transports for the arm device.
const (
	TransportCharDev = "chardev"
	TransportSerial  = "serial"
)

// Config holds the controller configuration
type Config struct {
	Device   DeviceConfig   `json:"device"`
	Joystick JoystickConfig `json:"joystick"`
	Keyboard KeyboardConfig `json:"keyboard"`
}

// DeviceConfig describes how to reach the arm
type DeviceConfig struct {
	Path          string `json:"path"`
	Transport     string `json:"transport"`
	BaudRate      int    `json:"baud_rate,omitempty"`
	ReadTimeoutMS int    `json:"read_timeout_ms"`
}

// ReadTimeout returns the status read-back timeout.
func (d DeviceConfig) ReadTimeout() time.Duration {
	return time.Duration(d.ReadTimeoutMS) * time.Millisecond
}

// JoystickConfig describes the analog controller and its mapping
type JoystickConfig struct {
	Index               int             `json:"index"`
	PollIntervalMS      int             `json:"poll_interval_ms"`
	ReconnectIntervalMS int             `json:"reconnect_interval_ms"`
	Axes                Calibration     `json:"axes"`
	Buttons             map[int]Control `json:"buttons"`
}

// PollInterval returns the sampling interval.
func (j JoystickConfig) PollInterval() time.Duration {
	return time.Duration(j.PollIntervalMS) * time.Millisecond
}

// ReconnectInterval returns the delay between reopen attempts.
func (j JoystickConfig) ReconnectInterval() time.Duration {
	return time.Duration(j.ReconnectIntervalMS) * time.Millisecond
}

// KeyboardConfig maps keys to controls
type KeyboardConfig struct {
	ReleaseTimeoutMS int                `json:"release_timeout_ms"`
	Keys             map[string]Control `json:"keys"`
}

// ReleaseTimeout returns how long a key may go without auto-repeat before
// it counts as released.
func (k KeyboardConfig) ReleaseTimeout() time.Duration {
	return time.Duration(k.ReleaseTimeoutMS) * time.Millisecond
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			Path:          "/dev/roboarm0",
			Transport:     TransportCharDev,
			BaudRate:      115200,
			ReadTimeoutMS: 200,
		},
		Joystick: JoystickConfig{
			Index:               0,
			PollIntervalMS:      5,
			ReconnectIntervalMS: 250,
			Axes: Calibration{
				// Right stick X. The stick rests off center, hence the
				// wider negative band.
				{Axis: 3, Joint: Base, PosThreshold: 30000, NegThreshold: -20000},
				{Axis: 1, Joint: Shoulder, PosThreshold: 16000, NegThreshold: -16000, Invert: true},
				{Axis: 4, Joint: Elbow, PosThreshold: 16000, NegThreshold: -16000, Invert: true},
				{Axis: 0, Joint: Wrist, PosThreshold: 16000, NegThreshold: -16000},
			},
			Buttons: map[int]Control{
				0: LightOn,
				1: LightOff,
				4: ClawPos,
				5: ClawNeg,
			},
		},
		Keyboard: KeyboardConfig{
			ReleaseTimeoutMS: 800,
			Keys: map[string]Control{
				"1": LightOn,
				"2": LightOff,
				"k": BasePos,
				"o": BaseNeg,
				"j": ShoulderPos,
				"i": ShoulderNeg,
				"f": ElbowPos,
				"r": ElbowNeg,
				"d": WristPos,
				"e": WristNeg,
				"s": ClawPos,
				"w": ClawNeg,
			},
		},
	}
}

// Validate reports the first problem that would make the configuration
// unusable.
func (c *Config) Validate() error {
	if c.Device.Path == "" {
		return errors.New("device path is empty")
	}
	switch c.Device.Transport {
	case TransportCharDev:
	case TransportSerial:
		if c.Device.BaudRate <= 0 {
			return fmt.Errorf("serial transport needs a positive baud_rate, got %d", c.Device.BaudRate)
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Device.Transport)
	}
	if c.Device.ReadTimeoutMS <= 0 {
		return errors.New("read_timeout_ms must be positive")
	}
	if c.Joystick.Index < 0 {
		return fmt.Errorf("joystick index %d is negative", c.Joystick.Index)
	}
	if c.Joystick.PollIntervalMS <= 0 || c.Joystick.ReconnectIntervalMS <= 0 {
		return errors.New("joystick intervals must be positive")
	}
	if err := c.Joystick.Axes.Validate(); err != nil {
		return err
	}
	for button, ctl := range c.Joystick.Buttons {
		if button < 0 || button > 31 {
			return fmt.Errorf("joystick button %d out of range", button)
		}
		if !ctl.Valid() {
			return fmt.Errorf("joystick button %d: invalid control", button)
		}
	}
	if c.Keyboard.ReleaseTimeoutMS <= 0 {
		return errors.New("release_timeout_ms must be positive")
	}
	return nil
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Fields missing
// from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
