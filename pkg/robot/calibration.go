package robot

import (
	"fmt"
	"math"
)

// AxisCalibration maps one analog controller axis to a joint.
//
// Raw samples at or above PosThreshold classify as Positive, at or below
// NegThreshold as Negative, anything between as Stopped. The thresholds
// need not be symmetric: a stick whose rest position sits off center gets a
// wider band on that side.
type AxisCalibration struct {
	Axis         int   `json:"axis"`
	Joint        Joint `json:"joint"`
	PosThreshold int16 `json:"pos_threshold"`
	NegThreshold int16 `json:"neg_threshold"`
	Invert       bool  `json:"invert,omitempty"`
}

// Classify converts a raw sample to a direction.
func (c AxisCalibration) Classify(raw int16) Direction {
	v := int32(raw)
	if c.Invert {
		v = -v
	}
	switch {
	case v >= int32(c.PosThreshold):
		return Positive
	case v <= int32(c.NegThreshold):
		return Negative
	default:
		return Stopped
	}
}

// Validate checks that the calibration describes a usable dead zone.
func (c AxisCalibration) Validate() error {
	if c.Axis < 0 {
		return fmt.Errorf("axis %d: negative axis index", c.Axis)
	}
	if !c.Joint.Valid() {
		return fmt.Errorf("axis %d: unknown joint %q", c.Axis, c.Joint)
	}
	if c.PosThreshold <= c.NegThreshold {
		return fmt.Errorf("axis %d: pos_threshold %d must be above neg_threshold %d",
			c.Axis, c.PosThreshold, c.NegThreshold)
	}
	if c.PosThreshold <= 0 || c.NegThreshold >= 0 {
		return fmt.Errorf("axis %d: thresholds must straddle zero", c.Axis)
	}
	return nil
}

// ClampAxis converts a driver axis value to the int16 sample range.
func ClampAxis(v int) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// Calibration is the set of mapped controller axes.
type Calibration []AxisCalibration

// ByAxis returns the calibration for an axis index.
func (c Calibration) ByAxis(axis int) (AxisCalibration, bool) {
	for _, ac := range c {
		if ac.Axis == axis {
			return ac, true
		}
	}
	return AxisCalibration{}, false
}

// Axes returns the mapped axis indices in order.
func (c Calibration) Axes() []int {
	axes := make([]int, 0, len(c))
	for _, ac := range c {
		axes = append(axes, ac.Axis)
	}
	return axes
}

// Validate checks every entry and rejects duplicated axes.
func (c Calibration) Validate() error {
	seen := make(map[int]bool, len(c))
	for _, ac := range c {
		if err := ac.Validate(); err != nil {
			return err
		}
		if seen[ac.Axis] {
			return fmt.Errorf("axis %d mapped twice", ac.Axis)
		}
		seen[ac.Axis] = true
	}
	return nil
}
