package robot

import (
	"fmt"
	"strings"
)

// MaxBattery is the highest battery level the device reports.
const MaxBattery = 4

// DeviceStatus is the last status frame read back from the arm.
type DeviceStatus struct {
	Connected bool

	// HasLastCommand is false when the device reported a status token
	// other than good or bad.
	HasLastCommand bool
	LastCommandOK  bool

	HasBattery bool
	Battery    int
}

// ParseStatus parses a status frame of the form
//
//	connected:yes status:good battery:3
//
// Anything else is rejected with ErrStatusUnparseable.
func ParseStatus(line string) (DeviceStatus, error) {
	var st DeviceStatus

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return st, fmt.Errorf("%w: want 3 fields, got %d", ErrStatusUnparseable, len(fields))
	}

	conn, ok := cutKey(fields[0], "connected")
	if !ok {
		return st, fmt.Errorf("%w: %q", ErrStatusUnparseable, fields[0])
	}
	switch conn {
	case "yes":
		st.Connected = true
	case "no":
	default:
		return st, fmt.Errorf("%w: connected %q", ErrStatusUnparseable, conn)
	}

	result, ok := cutKey(fields[1], "status")
	if !ok || result == "" {
		return st, fmt.Errorf("%w: %q", ErrStatusUnparseable, fields[1])
	}
	switch result {
	case "good":
		st.HasLastCommand, st.LastCommandOK = true, true
	case "bad":
		st.HasLastCommand = true
	}

	battery, ok := cutKey(fields[2], "battery")
	if !ok || len(battery) != 1 || battery[0] < '0' || battery[0] > '0'+MaxBattery {
		return st, fmt.Errorf("%w: %q", ErrStatusUnparseable, fields[2])
	}
	st.HasBattery = true
	st.Battery = int(battery[0] - '0')

	return st, nil
}

func cutKey(field, key string) (string, bool) {
	k, v, found := strings.Cut(field, ":")
	if !found || k != key {
		return "", false
	}
	return v, true
}

// ConnectionText renders the connection state for display.
func (s DeviceStatus) ConnectionText() string {
	if s.Connected {
		return "connected"
	}
	return "disconnected"
}

// LastCommandText renders the outcome of the last command for display.
func (s DeviceStatus) LastCommandText() string {
	switch {
	case !s.HasLastCommand:
		return "unknown"
	case s.LastCommandOK:
		return "good"
	default:
		return "bad"
	}
}

// BatteryText renders the battery level as "n/4".
func (s DeviceStatus) BatteryText() string {
	if !s.HasBattery {
		return "?/4"
	}
	return fmt.Sprintf("%d/%d", s.Battery, MaxBattery)
}

func (s DeviceStatus) String() string {
	return fmt.Sprintf("%s, last command %s, battery %s",
		s.ConnectionText(), s.LastCommandText(), s.BatteryText())
}
