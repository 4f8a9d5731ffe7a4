// Package teleop turns pointer, keyboard and joystick input into arm
// commands, with one input source authorized at a time.
package teleop

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gwillem/armctl/pkg/metrics"
	"github.com/gwillem/armctl/pkg/robot"
)

// Snapshot is the state the UI renders.
type Snapshot struct {
	Mode              InputMode
	Device            robot.DeviceStatus
	HasDevice         bool
	JoystickConnected bool
	JoystickName      string
	LastCommand       robot.Command
	LastError         string
}

// Engine is the command translation engine. Every entry point is safe for
// concurrent use; commands are sent one at a time in the order their
// input was arbitrated.
type Engine struct {
	ch      robot.Channel
	logger  *slog.Logger
	metrics *metrics.Metrics

	// mu guards arbiter, ledger and axes, and serializes sends.
	mu      sync.Mutex
	arbiter *Arbiter
	ledger  *Ledger
	axes    *AxisEngine
	buttons map[int]robot.Control

	mode   atomic.Int32
	status StatusCache

	viewMu       sync.RWMutex
	joystick     bool
	joystickName string
	lastCommand  robot.Command
	lastError    string

	logCh chan string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records command outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithButtons maps joystick buttons to controls.
func WithButtons(buttons map[int]robot.Control) Option {
	return func(e *Engine) { e.buttons = buttons }
}

// WithMode sets the initially authorized input mode (default Pointer).
func WithMode(m InputMode) Option {
	return func(e *Engine) {
		if m.Valid() {
			e.arbiter = NewArbiter(m)
		}
	}
}

// NewEngine creates an engine sending through ch, with the given joystick
// axis calibration.
func NewEngine(ch robot.Channel, axes robot.Calibration, opts ...Option) *Engine {
	e := &Engine{
		ch:      ch,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		arbiter: NewArbiter(Pointer),
		ledger:  NewLedger(),
		axes:    NewAxisEngine(axes),
		logCh:   make(chan string, 10),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.mode.Store(int32(e.arbiter.Mode()))
	return e
}

// Logs returns a channel that receives log messages for display.
func (e *Engine) Logs() <-chan string {
	return e.logCh
}

func (e *Engine) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case e.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start puts the arm in a known state by sending stop:all.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.send(robot.CmdStopAll); err != nil {
		return fmt.Errorf("initial stop: %w", err)
	}
	e.logger.Info("engine started", "mode", e.arbiter.Mode())
	return nil
}

// Close stops everything still moving and sends stop:all.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range robot.AllControls() {
		e.forceRelease(c)
	}
	for _, cmd := range e.axes.Reset() {
		_ = e.send(cmd)
	}
	return e.send(robot.CmdStopAll)
}

// Mode returns the authorized input mode.
func (e *Engine) Mode() InputMode {
	return InputMode(e.mode.Load())
}

// Authorized reports whether m may currently issue commands.
func (e *Engine) Authorized(m InputMode) bool {
	return e.Mode() == m
}

// SetMode authorizes m. Before returning it stops every control still
// latched by another source and, when leaving Controller, every moving
// axis. Setting the current mode does nothing.
func (e *Engine) SetMode(m InputMode) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, changed := e.arbiter.Set(m)
	if !changed {
		return
	}
	for _, c := range e.ledger.HeldExcept(m) {
		e.forceRelease(c)
	}
	if prev == Controller {
		for _, cmd := range e.axes.Reset() {
			_ = e.send(cmd)
		}
	}
	e.mode.Store(int32(m))
	e.metrics.ModeChanged(m.String())
	e.logger.Info("input mode changed", "from", prev, "to", m)
	e.log("Input mode: %s", m)
}

// Press handles a press edge of c from src. It reports whether a start
// command was delivered.
func (e *Engine) Press(src InputMode, c robot.Control) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.press(src, c)
}

// Release handles a release edge of c from src. It reports whether a stop
// command was delivered.
func (e *Engine) Release(src InputMode, c robot.Control) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.release(src, c)
}

// Click is a press immediately followed by a release, as from a plain
// button. It reports whether the start command was delivered.
func (e *Engine) Click(src InputMode, c robot.Control) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.press(src, c)
	if ok {
		e.release(src, c)
	}
	return ok
}

// JoystickButton handles a controller button edge.
func (e *Engine) JoystickButton(button int, pressed bool) bool {
	c, ok := e.buttons[button]
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if pressed {
		return e.press(Controller, c)
	}
	return e.release(Controller, c)
}

// JoystickAxis handles one raw controller axis sample. Samples are dropped
// while the controller is not authorized.
func (e *Engine) JoystickAxis(axis int, raw int16) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.arbiter.Authorized(Controller) {
		return false
	}
	cmd, ok := e.axes.Sample(axis, raw)
	if !ok {
		return false
	}
	// The new axis state stands even if the send fails; a failed start
	// must not turn into a resend on every sample.
	return e.send(cmd) == nil
}

// ControllerFound records that the joystick was opened.
func (e *Engine) ControllerFound(name string) {
	e.viewMu.Lock()
	e.joystick = true
	e.joystickName = name
	e.viewMu.Unlock()

	e.metrics.JoystickConnected(true)
	e.logger.Info("joystick connected", "name", name)
	e.log("Joystick connected: %s", name)
}

// ControllerLost records a joystick disconnect and stops anything the
// controller left moving.
func (e *Engine) ControllerLost(cause error) {
	e.viewMu.Lock()
	e.joystick = false
	e.viewMu.Unlock()

	e.metrics.JoystickConnected(false)
	e.logger.Warn("joystick disconnected", "error", cause)
	e.log("Joystick disconnected")

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.ledger.HeldBy(Controller) {
		e.forceRelease(c)
	}
	for _, cmd := range e.axes.Reset() {
		_ = e.send(cmd)
	}
}

// Snapshot returns the current display state. It never waits for a send
// in progress.
func (e *Engine) Snapshot() Snapshot {
	dev, ok := e.status.Get()

	e.viewMu.RLock()
	defer e.viewMu.RUnlock()
	return Snapshot{
		Mode:              e.Mode(),
		Device:            dev,
		HasDevice:         ok,
		JoystickConnected: e.joystick,
		JoystickName:      e.joystickName,
		LastCommand:       e.lastCommand,
		LastError:         e.lastError,
	}
}

// Held reports whether control c is latched.
func (e *Engine) Held(c robot.Control) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Held(c)
}

// AxisState returns the current classification of a joystick axis.
func (e *Engine) AxisState(axis int) robot.Direction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.axes.State(axis)
}

func (e *Engine) press(src InputMode, c robot.Control) bool {
	if !e.arbiter.Authorized(src) {
		return false
	}
	cmd, ok := e.ledger.Press(c, src)
	if !ok {
		return false
	}
	if err := e.send(cmd); err != nil {
		e.ledger.undoPress(c)
		return false
	}
	return true
}

func (e *Engine) release(src InputMode, c robot.Control) bool {
	if !e.arbiter.Authorized(src) {
		return false
	}
	cmd, ok := e.ledger.Release(c)
	if !ok || cmd == "" {
		return false
	}
	if err := e.send(cmd); err != nil {
		e.ledger.undoRelease(c, src)
		return false
	}
	return true
}

// forceRelease unlatches c and sends its stop command. The latch is
// cleared even when the send fails.
func (e *Engine) forceRelease(c robot.Control) {
	cmd, ok := e.ledger.Release(c)
	if ok && cmd != "" {
		_ = e.send(cmd)
	}
}

// send delivers cmd and updates the status cache. A missing or malformed
// status frame still counts as delivered and leaves the cache unchanged.
// Called with mu held.
func (e *Engine) send(cmd robot.Command) error {
	st, err := e.ch.Send(cmd)

	result := metrics.ResultOK
	switch {
	case err == nil:
		e.status.Update(st)
	case errors.Is(err, robot.ErrStatusUnparseable):
		result = metrics.ResultNoStatus
		e.logger.Debug("status frame ignored", "command", cmd, "error", err)
		err = nil
	case errors.Is(err, robot.ErrDeviceUnavailable):
		result = metrics.ResultUnavailable
	default:
		result = metrics.ResultWriteFailed
	}
	e.metrics.CommandSent(string(cmd), result)

	e.viewMu.Lock()
	if err != nil {
		e.lastError = fmt.Sprintf("%s not confirmed: %v", cmd, err)
	} else {
		e.lastCommand = cmd
		e.lastError = ""
	}
	e.viewMu.Unlock()

	if err != nil {
		e.logger.Warn("command not confirmed", "command", cmd, "error", err)
		e.log("%s not confirmed: %v", cmd, err)
		return err
	}
	e.logger.Debug("command sent", "command", cmd)
	return nil
}
