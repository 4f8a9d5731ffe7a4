package teleop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gwillem/armctl/pkg/joystick"
	"github.com/gwillem/armctl/pkg/robot"
)

// scriptedOpener fails the first failures opens, then hands out devices in
// order. The last device is reused once the list runs out.
type scriptedOpener struct {
	mu       sync.Mutex
	failures int
	devices  []*fakeDevice
	opens    int
}

func (o *scriptedOpener) Open() (joystick.Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.failures > 0 {
		o.failures--
		return nil, joystick.ErrUnavailable
	}
	d := o.devices[0]
	if len(o.devices) > 1 {
		o.devices = o.devices[1:]
	}
	return d, nil
}

func (o *scriptedOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

func startPoller(t *testing.T, e *Engine, open joystick.Opener) (*Poller, context.CancelFunc, <-chan error) {
	t.Helper()
	p := NewPoller(e, PollerConfig{
		Open:              open,
		Axes:              []int{3},
		PollInterval:      time.Millisecond,
		ReconnectInterval: time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(cancel)
	return p, cancel, done
}

func TestPoller_HeldAxisSendsOnce(t *testing.T) {
	e, ch := newTestEngine(Controller)
	dev := &fakeDevice{states: []joystick.State{axisState(3, 0), axisState(3, 32767)}}
	op := &scriptedOpener{devices: []*fakeDevice{dev}}

	_, cancel, done := startPoller(t, e, op.Open)
	waitFor(t, "samples", func() bool { return dev.Reads() > 20 })
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if !dev.Closed() {
		t.Error("device not closed on shutdown")
	}
	if got := ch.Sent(); !equalCommands(got, []robot.Command{robot.CmdBaseRight}) {
		t.Errorf("sent %v, want [base:right]", got)
	}
}

func TestPoller_UnauthorizedDrains(t *testing.T) {
	e, ch := newTestEngine(Keyboard)
	dev := &fakeDevice{states: []joystick.State{
		axisState(3, -32767),
		{AxisData: make([]int, 6), Buttons: 1 << 4},
		axisState(3, 0),
	}}
	op := &scriptedOpener{devices: []*fakeDevice{dev}}

	_, cancel, done := startPoller(t, e, op.Open)
	waitFor(t, "samples", func() bool { return dev.Reads() > 10 })
	cancel()
	<-done

	if got := ch.Sent(); len(got) != 0 {
		t.Errorf("sent %v, want nothing", got)
	}
}

func TestPoller_Reconnect(t *testing.T) {
	e, ch := newTestEngine(Controller)
	first := &fakeDevice{
		states:    []joystick.State{axisState(3, -32767)},
		failAfter: 5,
	}
	second := &fakeDevice{states: []joystick.State{axisState(3, 0)}}
	op := &scriptedOpener{failures: 3, devices: []*fakeDevice{first, second}}

	_, cancel, done := startPoller(t, e, op.Open)
	waitFor(t, "second device", func() bool { return second.Reads() > 5 })
	cancel()
	<-done

	if !first.Closed() {
		t.Error("unplugged device not closed")
	}
	if got := op.Opens(); got != 5 {
		t.Errorf("opens = %d, want 5", got)
	}
	// The disconnect stops the base; the centred stick on the new device
	// sends nothing further.
	want := []robot.Command{robot.CmdBaseLeft, robot.CmdBaseStop}
	if got := ch.Sent(); !equalCommands(got, want) {
		t.Errorf("sent %v, want %v", got, want)
	}
	if !e.Snapshot().JoystickConnected {
		t.Error("joystick not reported connected after reconnect")
	}
}

func TestPoller_CancelWhileWaiting(t *testing.T) {
	e, _ := newTestEngine(Controller)
	op := &scriptedOpener{failures: 1 << 30}

	_, cancel, done := startPoller(t, e, op.Open)
	waitFor(t, "open attempts", func() bool { return op.Opens() > 2 })
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if e.Snapshot().JoystickConnected {
		t.Error("joystick reported connected")
	}
}

func TestPoller_Telemetry(t *testing.T) {
	e, _ := newTestEngine(Keyboard)
	dev := &fakeDevice{states: []joystick.State{{AxisData: []int{0, 0, 0, 12345}, Buttons: 3}}}
	op := &scriptedOpener{devices: []*fakeDevice{dev}}

	p, _, _ := startPoller(t, e, op.Open)

	select {
	case tm := <-p.Telemetry():
		if tm.Axes[3] != 12345 {
			t.Errorf("axis 3 = %d, want 12345", tm.Axes[3])
		}
		if tm.Buttons != 3 {
			t.Errorf("buttons = %b, want 11", tm.Buttons)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no telemetry")
	}
}

func TestPoller_HysteresisBand(t *testing.T) {
	e, ch := newTestEngine(Controller)
	var states []joystick.State
	for _, v := range []int{0, 5000, 20000, 35000, 20000, 0} {
		states = append(states, axisState(3, v))
	}
	dev := &fakeDevice{states: states}
	op := &scriptedOpener{devices: []*fakeDevice{dev}}

	_, cancel, done := startPoller(t, e, op.Open)
	waitFor(t, "samples", func() bool { return dev.Reads() > len(states)+2 })
	cancel()
	<-done

	want := []robot.Command{robot.CmdBaseRight, robot.CmdBaseStop}
	if got := ch.Sent(); !equalCommands(got, want) {
		t.Errorf("sent %v, want %v", got, want)
	}
}
