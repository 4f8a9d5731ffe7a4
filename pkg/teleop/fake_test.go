package teleop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gwillem/armctl/pkg/joystick"
	"github.com/gwillem/armctl/pkg/robot"
)

// fakeChannel records delivered commands.
type fakeChannel struct {
	mu       sync.Mutex
	sent     []robot.Command
	attempts int
	err      error
	status   robot.DeviceStatus
}

func (f *fakeChannel) Send(cmd robot.Command) (robot.DeviceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.err != nil {
		return robot.DeviceStatus{}, f.err
	}
	f.sent = append(f.sent, cmd)
	return f.status, nil
}

func (f *fakeChannel) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeChannel) setStatus(st robot.DeviceStatus) {
	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
}

func (f *fakeChannel) Sent() []robot.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]robot.Command(nil), f.sent...)
}

func (f *fakeChannel) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

// fakeDevice serves scripted joystick states; the last state repeats.
type fakeDevice struct {
	mu        sync.Mutex
	states    []joystick.State
	failAfter int
	reads     int
	closed    bool
}

func (d *fakeDevice) Name() string { return "fake pad" }

func (d *fakeDevice) Read() (joystick.State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAfter > 0 && d.reads >= d.failAfter {
		return joystick.State{}, errUnplugged
	}
	i := d.reads
	if i >= len(d.states) {
		i = len(d.states) - 1
	}
	d.reads++
	return d.states[i], nil
}

func (d *fakeDevice) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *fakeDevice) Reads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

func (d *fakeDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func axisState(axis, value int) joystick.State {
	data := make([]int, 6)
	data[axis] = value
	return joystick.State{AxisData: data}
}

var baseAxis = robot.Calibration{
	{Axis: 3, Joint: robot.Base, PosThreshold: 30000, NegThreshold: -20000},
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func equalCommands(a, b []robot.Command) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errUnplugged = errors.New("no such device")
