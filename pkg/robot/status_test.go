package robot

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		line string
		want DeviceStatus
	}{
		{
			"connected:yes status:good battery:3",
			DeviceStatus{Connected: true, HasLastCommand: true, LastCommandOK: true, HasBattery: true, Battery: 3},
		},
		{
			"connected:no status:bad battery:0\n",
			DeviceStatus{HasLastCommand: true, HasBattery: true, Battery: 0},
		},
		{
			"connected:yes status:busy battery:4",
			DeviceStatus{Connected: true, HasBattery: true, Battery: 4},
		},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.line)
		if err != nil {
			t.Errorf("ParseStatus(%q) error: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseStatus_Garbled(t *testing.T) {
	lines := []string{
		"",
		"connected:yes status:good",
		"connected:yes status:good battery:",
		"connected:yes status:good battery:5",
		"connected:yes status:good battery:33",
		"connected:maybe status:good battery:3",
		"connectd:yes status:good battery:3",
		"connected:yes status: battery:3",
		"connected:yes battery:3 status:good",
		"connected:yes status:good battery:3 extra",
		"\x00\x01garbage",
	}

	for _, line := range lines {
		_, err := ParseStatus(line)
		if !errors.Is(err, ErrStatusUnparseable) {
			t.Errorf("ParseStatus(%q) error = %v, want ErrStatusUnparseable", line, err)
		}
	}
}

func TestDeviceStatus_Text(t *testing.T) {
	st := DeviceStatus{Connected: true, HasLastCommand: true, HasBattery: true, Battery: 2}
	if got := st.String(); got != "connected, last command bad, battery 2/4" {
		t.Errorf("String() = %q", got)
	}
	if got := (DeviceStatus{}).String(); got != "disconnected, last command unknown, battery ?/4" {
		t.Errorf("zero String() = %q", got)
	}
}
