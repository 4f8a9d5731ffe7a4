package teleop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gwillem/armctl/pkg/joystick"
	"github.com/gwillem/armctl/pkg/robot"
)

// telemetryInterval limits how often samples are published for display.
const telemetryInterval = 50 * time.Millisecond

// Telemetry is a raw joystick sample published for display.
type Telemetry struct {
	Axes      map[int]int16
	Buttons   uint32
	Timestamp time.Time
}

// PollerConfig holds configuration for the joystick poll loop.
type PollerConfig struct {
	Open              joystick.Opener
	Axes              []int
	PollInterval      time.Duration
	ReconnectInterval time.Duration
	Logger            *slog.Logger
}

// Poller samples the joystick on its own goroutine and feeds the engine.
//
// While disconnected it retries the open on a fixed short interval rather
// than backing off: a controller usually comes back within moments, after
// USB re-enumeration.
type Poller struct {
	engine    *Engine
	open      joystick.Opener
	axes      []int
	poll      time.Duration
	reconnect time.Duration
	logger    *slog.Logger

	telemetryCh   chan Telemetry
	lastTelemetry time.Time
}

// NewPoller creates a poll loop feeding engine.
func NewPoller(engine *Engine, cfg PollerConfig) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 250 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		engine:      engine,
		open:        cfg.Open,
		axes:        cfg.Axes,
		poll:        cfg.PollInterval,
		reconnect:   cfg.ReconnectInterval,
		logger:      cfg.Logger,
		telemetryCh: make(chan Telemetry, 1),
	}
}

// Telemetry returns a channel that receives the latest joystick samples.
func (p *Poller) Telemetry() <-chan Telemetry {
	return p.telemetryCh
}

// Run polls until ctx is cancelled. It always returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	for {
		dev, err := p.connect(ctx)
		if err != nil {
			return err
		}

		err = p.serve(ctx, dev)
		dev.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.engine.ControllerLost(err)
	}
}

// connect opens the device, retrying every reconnect interval.
func (p *Poller) connect(ctx context.Context) (joystick.Device, error) {
	ticker := time.NewTicker(p.reconnect)
	defer ticker.Stop()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dev, err := p.open()
		if err == nil {
			p.engine.ControllerFound(dev.Name())
			return dev, nil
		}
		if attempt == 0 {
			p.logger.Info("waiting for joystick", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// serve samples dev until a read fails or ctx is cancelled. Samples are
// decoded even while the controller is not authorized so button state
// stays current; the engine discards them.
func (p *Poller) serve(ctx context.Context, dev joystick.Device) error {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	var buttons uint32
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		st, err := dev.Read()
		if err != nil {
			return fmt.Errorf("%w: %v", joystick.ErrDisconnected, err)
		}

		for _, edge := range joystick.Edges(buttons, st.Buttons) {
			p.engine.JoystickButton(edge.Button, edge.Pressed)
		}
		buttons = st.Buttons

		axes := make(map[int]int16, len(p.axes))
		for _, axis := range p.axes {
			raw := robot.ClampAxis(joystick.Axis(st, axis))
			axes[axis] = raw
			p.engine.JoystickAxis(axis, raw)
		}
		p.publish(Telemetry{Axes: axes, Buttons: st.Buttons, Timestamp: time.Now()})
	}
}

func (p *Poller) publish(t Telemetry) {
	if t.Timestamp.Sub(p.lastTelemetry) < telemetryInterval {
		return
	}
	p.lastTelemetry = t.Timestamp
	select {
	case p.telemetryCh <- t:
	default:
		// Drop old sample if channel full, replace with new
		select {
		case <-p.telemetryCh:
		default:
		}
		select {
		case p.telemetryCh <- t:
		default:
		}
	}
}
