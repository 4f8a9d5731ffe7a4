// Package robot provides the command vocabulary, status frames and device
// transport for the robotic arm.
package robot

import "fmt"

// Command is one ASCII command accepted by the arm device.
type Command string

// Command vocabulary understood by the arm driver.
const (
	CmdLightOn      Command = "led:on"
	CmdLightOff     Command = "led:off"
	CmdBaseLeft     Command = "base:left"
	CmdBaseRight    Command = "base:right"
	CmdBaseStop     Command = "base:stop"
	CmdShoulderUp   Command = "shoulder:up"
	CmdShoulderDown Command = "shoulder:down"
	CmdShoulderStop Command = "shoulder:stop"
	CmdElbowUp      Command = "elbow:up"
	CmdElbowDown    Command = "elbow:down"
	CmdElbowStop    Command = "elbow:stop"
	CmdWristUp      Command = "wrist:up"
	CmdWristDown    Command = "wrist:down"
	CmdWristStop    Command = "wrist:stop"
	CmdClawOpen     Command = "claw:open"
	CmdClawClose    Command = "claw:close"
	CmdClawStop     Command = "claw:stop"
	CmdStopAll      Command = "stop:all"
)

// Joint identifies a motor on the arm.
type Joint string

// Joints of the arm, base first.
const (
	Base     Joint = "base"
	Shoulder Joint = "shoulder"
	Elbow    Joint = "elbow"
	Wrist    Joint = "wrist"
	Claw     Joint = "claw"
)

// AllJoints returns all joints in order from base to claw.
func AllJoints() []Joint {
	return []Joint{Base, Shoulder, Elbow, Wrist, Claw}
}

// Direction is the tri-state motion of a joint.
type Direction int8

const (
	Negative Direction = -1
	Stopped  Direction = 0
	Positive Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Negative:
		return "negative"
	case Stopped:
		return "stopped"
	case Positive:
		return "positive"
	default:
		return fmt.Sprintf("direction(%d)", int8(d))
	}
}

// jointCommands maps each joint to its negative, stop and positive commands.
var jointCommands = map[Joint][3]Command{
	Base:     {CmdBaseLeft, CmdBaseStop, CmdBaseRight},
	Shoulder: {CmdShoulderDown, CmdShoulderStop, CmdShoulderUp},
	Elbow:    {CmdElbowDown, CmdElbowStop, CmdElbowUp},
	Wrist:    {CmdWristDown, CmdWristStop, CmdWristUp},
	Claw:     {CmdClawClose, CmdClawStop, CmdClawOpen},
}

// Command returns the command that drives the joint in direction d.
// Positive is right, up or open.
func (j Joint) Command(d Direction) (Command, bool) {
	cmds, ok := jointCommands[j]
	if !ok || d < Negative || d > Positive {
		return "", false
	}
	return cmds[int(d)+1], true
}

// Valid reports whether j is a known joint.
func (j Joint) Valid() bool {
	_, ok := jointCommands[j]
	return ok
}

// Control is a discrete input addressable by a start/stop command pair.
type Control int

const (
	LightOn Control = iota
	LightOff
	BasePos
	BaseNeg
	ShoulderPos
	ShoulderNeg
	ElbowPos
	ElbowNeg
	WristPos
	WristNeg
	ClawPos
	ClawNeg

	NumControls = int(ClawNeg) + 1
)

var controlNames = [NumControls]string{
	"light_on", "light_off",
	"base_pos", "base_neg",
	"shoulder_pos", "shoulder_neg",
	"elbow_pos", "elbow_neg",
	"wrist_pos", "wrist_neg",
	"claw_pos", "claw_neg",
}

// AllControls returns every control in declaration order.
func AllControls() []Control {
	cs := make([]Control, NumControls)
	for i := range cs {
		cs[i] = Control(i)
	}
	return cs
}

// Valid reports whether c is one of the twelve controls.
func (c Control) Valid() bool {
	return c >= 0 && int(c) < NumControls
}

func (c Control) String() string {
	if !c.Valid() {
		return fmt.Sprintf("control(%d)", int(c))
	}
	return controlNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Control) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid control %d", int(c))
	}
	return []byte(controlNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Control) UnmarshalText(text []byte) error {
	ctl, err := ParseControl(string(text))
	if err != nil {
		return err
	}
	*c = ctl
	return nil
}

// ParseControl looks up a control by its name, e.g. "base_pos".
func ParseControl(name string) (Control, error) {
	for i, n := range controlNames {
		if n == name {
			return Control(i), nil
		}
	}
	return 0, fmt.Errorf("unknown control %q", name)
}

// Momentary reports whether the control is a one-shot action with no stop
// command (the light switches).
func (c Control) Momentary() bool {
	return c == LightOn || c == LightOff
}

// Joint returns the joint and direction a motor control drives. The light
// controls return false.
func (c Control) Joint() (Joint, Direction, bool) {
	switch c {
	case BasePos:
		return Base, Positive, true
	case BaseNeg:
		return Base, Negative, true
	case ShoulderPos:
		return Shoulder, Positive, true
	case ShoulderNeg:
		return Shoulder, Negative, true
	case ElbowPos:
		return Elbow, Positive, true
	case ElbowNeg:
		return Elbow, Negative, true
	case WristPos:
		return Wrist, Positive, true
	case WristNeg:
		return Wrist, Negative, true
	case ClawPos:
		return Claw, Positive, true
	case ClawNeg:
		return Claw, Negative, true
	}
	return "", Stopped, false
}

// Start returns the command issued when the control is pressed.
func (c Control) Start() Command {
	switch c {
	case LightOn:
		return CmdLightOn
	case LightOff:
		return CmdLightOff
	}
	j, d, ok := c.Joint()
	if !ok {
		return ""
	}
	cmd, _ := j.Command(d)
	return cmd
}

// Stop returns the command issued when the control is released. Momentary
// controls have no stop command and return "".
func (c Control) Stop() Command {
	j, _, ok := c.Joint()
	if !ok {
		return ""
	}
	cmd, _ := j.Command(Stopped)
	return cmd
}
