package teleop

import (
	"sort"

	"github.com/gwillem/armctl/pkg/robot"
)

// AxisEngine classifies raw analog samples per axis and emits a command
// only when an axis changes between Negative, Stopped and Positive. Held
// sticks are silent no matter how often they are sampled. It is not safe
// for concurrent use.
type AxisEngine struct {
	cal   map[int]robot.AxisCalibration
	state map[int]robot.Direction
}

// NewAxisEngine creates an engine for the calibrated axes, all Stopped.
func NewAxisEngine(cal robot.Calibration) *AxisEngine {
	a := &AxisEngine{
		cal:   make(map[int]robot.AxisCalibration, len(cal)),
		state: make(map[int]robot.Direction, len(cal)),
	}
	for _, ac := range cal {
		a.cal[ac.Axis] = ac
		a.state[ac.Axis] = robot.Stopped
	}
	return a
}

// Sample feeds one raw value and returns the command for a state change.
// Unmapped axes never produce commands.
func (a *AxisEngine) Sample(axis int, raw int16) (robot.Command, bool) {
	ac, ok := a.cal[axis]
	if !ok {
		return "", false
	}
	next := ac.Classify(raw)
	if next == a.state[axis] {
		return "", false
	}
	a.state[axis] = next
	return ac.Joint.Command(next)
}

// State returns the current classification of axis.
func (a *AxisEngine) State(axis int) robot.Direction {
	return a.state[axis]
}

// Reset forces every moving axis back to Stopped and returns the stop
// commands for them, lowest axis first.
func (a *AxisEngine) Reset() []robot.Command {
	var moving []int
	for axis, d := range a.state {
		if d != robot.Stopped {
			moving = append(moving, axis)
		}
	}
	sort.Ints(moving)

	cmds := make([]robot.Command, 0, len(moving))
	for _, axis := range moving {
		a.state[axis] = robot.Stopped
		if cmd, ok := a.cal[axis].Joint.Command(robot.Stopped); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}
