// Package joystick reads analog game controllers through the Linux joystick
// API (/dev/input/js*).
package joystick

import (
	"errors"
	"fmt"
	"math/bits"
	"os"

	js "github.com/0xcafed00d/joystick"
)

var (
	// ErrUnavailable means the controller device could not be opened.
	ErrUnavailable = errors.New("joystick unavailable")

	// ErrDisconnected means an open controller stopped answering reads.
	ErrDisconnected = errors.New("joystick disconnected")
)

// State is one sample of every axis and button.
type State = js.State

// Device is an open controller.
type Device interface {
	Name() string
	Read() (State, error)
	Close()
}

// Opener opens a controller. It is called again after every disconnect.
type Opener func() (Device, error)

// probeEvery is the number of reads between checks that the device node
// still exists.
const probeEvery = 50

// Open returns an Opener for /dev/input/js<index>.
func Open(index int) Opener {
	return func() (Device, error) {
		dev, err := js.Open(index)
		if err != nil {
			return nil, fmt.Errorf("%w: js%d: %v", ErrUnavailable, index, err)
		}
		return &device{Joystick: dev, path: fmt.Sprintf("/dev/input/js%d", index)}, nil
	}
}

// device reports a disconnect once the device node disappears. The driver
// keeps serving the last state after an unplug.
type device struct {
	js.Joystick
	path  string
	reads int
}

func (d *device) Read() (State, error) {
	st, err := d.Joystick.Read()
	if err != nil {
		return st, err
	}
	d.reads++
	if d.reads%probeEvery == 0 {
		if _, err := os.Stat(d.path); err != nil {
			return State{}, err
		}
	}
	return st, nil
}

// ButtonEdge is a change of one button between two samples.
type ButtonEdge struct {
	Button  int
	Pressed bool
}

// Edges returns the buttons that changed between prev and cur, lowest
// button first.
func Edges(prev, cur uint32) []ButtonEdge {
	changed := prev ^ cur
	if changed == 0 {
		return nil
	}
	edges := make([]ButtonEdge, 0, bits.OnesCount32(changed))
	for changed != 0 {
		b := bits.TrailingZeros32(changed)
		edges = append(edges, ButtonEdge{Button: b, Pressed: cur&(1<<b) != 0})
		changed &^= 1 << b
	}
	return edges
}

// Axis returns the value of axis i, or 0 if the device has fewer axes.
func Axis(s State, i int) int {
	if i < 0 || i >= len(s.AxisData) {
		return 0
	}
	return s.AxisData[i]
}
