package teleop

import (
	"testing"

	"github.com/gwillem/armctl/pkg/robot"
)

func runAxis(a *AxisEngine, axis int, samples []int16) []robot.Command {
	var cmds []robot.Command
	for _, raw := range samples {
		if cmd, ok := a.Sample(axis, raw); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func TestAxisEngine_HysteresisBand(t *testing.T) {
	a := NewAxisEngine(baseAxis)
	got := runAxis(a, 3, []int16{0, 5000, 20000, robot.ClampAxis(35000), 20000, 0})
	want := []robot.Command{robot.CmdBaseRight, robot.CmdBaseStop}
	if !equalCommands(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

// densify linearly interpolates between keyframes with n samples per
// segment. Keyframes only move between adjacent classes, so the dense path
// crosses the same thresholds as the sparse one.
func densify(keys []int16, n int) []int16 {
	out := make([]int16, 0, len(keys)*n)
	for i := 0; i < len(keys)-1; i++ {
		a, b := int32(keys[i]), int32(keys[i+1])
		for j := 0; j < n; j++ {
			out = append(out, int16(a+(b-a)*int32(j)/int32(n)))
		}
	}
	return append(out, keys[len(keys)-1])
}

func TestAxisEngine_RateIndependent(t *testing.T) {
	keys := []int16{0, 31000, 0, -25000, -5000, 32000, 10000, 0}
	want := []robot.Command{
		robot.CmdBaseRight, robot.CmdBaseStop,
		robot.CmdBaseLeft, robot.CmdBaseStop,
		robot.CmdBaseRight, robot.CmdBaseStop,
	}

	for _, density := range []int{1, 10, 100} {
		a := NewAxisEngine(baseAxis)
		got := runAxis(a, 3, densify(keys, density))
		if !equalCommands(got, want) {
			t.Errorf("density %dx: commands = %v, want %v", density, got, want)
		}
	}
}

func TestAxisEngine_HeldStickIsSilent(t *testing.T) {
	a := NewAxisEngine(baseAxis)
	samples := make([]int16, 1000)
	for i := range samples {
		samples[i] = 32767
	}
	got := runAxis(a, 3, samples)
	if len(got) != 1 || got[0] != robot.CmdBaseRight {
		t.Errorf("commands = %v, want one base:right", got)
	}
	if a.State(3) != robot.Positive {
		t.Errorf("State(3) = %v, want positive", a.State(3))
	}
}

func TestAxisEngine_DirectReversal(t *testing.T) {
	a := NewAxisEngine(baseAxis)
	got := runAxis(a, 3, []int16{32000, -32000})
	want := []robot.Command{robot.CmdBaseRight, robot.CmdBaseLeft}
	if !equalCommands(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestAxisEngine_UnmappedAxis(t *testing.T) {
	a := NewAxisEngine(baseAxis)
	if cmd, ok := a.Sample(0, 32767); ok {
		t.Errorf("unmapped axis produced %q", cmd)
	}
}

func TestAxisEngine_Reset(t *testing.T) {
	a := NewAxisEngine(robot.Calibration{
		{Axis: 3, Joint: robot.Base, PosThreshold: 30000, NegThreshold: -20000},
		{Axis: 1, Joint: robot.Shoulder, PosThreshold: 16000, NegThreshold: -16000},
		{Axis: 4, Joint: robot.Elbow, PosThreshold: 16000, NegThreshold: -16000},
	})
	a.Sample(3, -30000)
	a.Sample(1, 20000)

	got := a.Reset()
	want := []robot.Command{robot.CmdShoulderStop, robot.CmdBaseStop}
	if !equalCommands(got, want) {
		t.Errorf("Reset() = %v, want %v", got, want)
	}
	if a.State(3) != robot.Stopped || a.State(1) != robot.Stopped {
		t.Error("axes not stopped after Reset")
	}
	if got := a.Reset(); len(got) != 0 {
		t.Errorf("second Reset() = %v, want none", got)
	}
}
