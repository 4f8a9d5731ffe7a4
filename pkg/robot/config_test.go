package robot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Joystick.PollInterval() != 5*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 5ms", cfg.Joystick.PollInterval())
	}
	if len(cfg.Keyboard.Keys) != NumControls {
		t.Errorf("default key map has %d keys, want %d", len(cfg.Keyboard.Keys), NumControls)
	}
	base, ok := cfg.Joystick.Axes.ByAxis(3)
	if !ok || base.Joint != Base || base.PosThreshold != 30000 || base.NegThreshold != -20000 {
		t.Errorf("unexpected base axis calibration: %+v", base)
	}
}

func TestLoadConfigFrom_MergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armctl.json")
	data := `{
		"device": {"path": "/dev/ttyUSB0", "transport": "serial"},
		"joystick": {"index": 1, "buttons": {"7": "claw_neg"}}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Device.Path != "/dev/ttyUSB0" || cfg.Device.Transport != TransportSerial {
		t.Errorf("device = %+v", cfg.Device)
	}
	if cfg.Device.BaudRate != 115200 {
		t.Errorf("baud rate default lost: %d", cfg.Device.BaudRate)
	}
	if cfg.Joystick.Index != 1 {
		t.Errorf("joystick index = %d, want 1", cfg.Joystick.Index)
	}
	if cfg.Joystick.Buttons[7] != ClawNeg {
		t.Errorf("button 7 = %v, want claw_neg", cfg.Joystick.Buttons[7])
	}
	if len(cfg.Joystick.Axes) != 4 {
		t.Errorf("default axes lost: %d", len(cfg.Joystick.Axes))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armctl.json")
	cfg := DefaultConfig()
	cfg.Joystick.Axes = Calibration{{Axis: 2, Joint: Claw, PosThreshold: 1000, NegThreshold: -1000}}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if len(loaded.Joystick.Axes) != 1 || loaded.Joystick.Axes[0] != cfg.Joystick.Axes[0] {
		t.Errorf("axes = %+v", loaded.Joystick.Axes)
	}
	if loaded.Keyboard.Keys["k"] != BasePos {
		t.Errorf("key k = %v", loaded.Keyboard.Keys["k"])
	}
}

func TestLoadConfigFrom_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfigFrom(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file accepted")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"keyboard": {"keys": {"x": "hip_pos"}}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFrom(bad); err == nil {
		t.Error("unknown control name accepted")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.Device.Path = "" }},
		{"unknown transport", func(c *Config) { c.Device.Transport = "usb" }},
		{"serial without baud", func(c *Config) { c.Device.Transport = TransportSerial; c.Device.BaudRate = 0 }},
		{"zero read timeout", func(c *Config) { c.Device.ReadTimeoutMS = 0 }},
		{"negative joystick", func(c *Config) { c.Joystick.Index = -1 }},
		{"zero poll interval", func(c *Config) { c.Joystick.PollIntervalMS = 0 }},
		{"button out of range", func(c *Config) { c.Joystick.Buttons[40] = ClawPos }},
		{"invalid button control", func(c *Config) { c.Joystick.Buttons[2] = Control(99) }},
		{"zero release timeout", func(c *Config) { c.Keyboard.ReleaseTimeoutMS = 0 }},
		{"bad axis", func(c *Config) { c.Joystick.Axes[0].PosThreshold = -5 }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() accepted invalid config", tt.name)
		}
	}
}
