package teleop

import "github.com/gwillem/armctl/pkg/robot"

type latch struct {
	held  bool
	owner InputMode
}

// Ledger tracks, per control, whether a start command is outstanding.
// It turns repeated press edges into one start command and a release into
// at most one stop command. It is not safe for concurrent use.
type Ledger struct {
	latches [robot.NumControls]latch
}

// NewLedger returns a ledger with every latch released.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Press latches c for owner and returns its start command. It returns
// false if c is already held or unknown.
func (l *Ledger) Press(c robot.Control, owner InputMode) (robot.Command, bool) {
	if !c.Valid() || l.latches[c].held {
		return "", false
	}
	l.latches[c] = latch{held: true, owner: owner}
	return c.Start(), true
}

// Release unlatches c and returns its stop command. It returns false if c
// was not held. Momentary controls unlatch with an empty command.
func (l *Ledger) Release(c robot.Control) (robot.Command, bool) {
	if !c.Valid() || !l.latches[c].held {
		return "", false
	}
	l.latches[c] = latch{}
	return c.Stop(), true
}

// Held reports whether c is latched.
func (l *Ledger) Held(c robot.Control) bool {
	return c.Valid() && l.latches[c].held
}

// Owner returns the input mode that latched c.
func (l *Ledger) Owner(c robot.Control) (InputMode, bool) {
	if !l.Held(c) {
		return 0, false
	}
	return l.latches[c].owner, true
}

// HeldExcept returns the latched controls not owned by mode.
func (l *Ledger) HeldExcept(mode InputMode) []robot.Control {
	var cs []robot.Control
	for i, lt := range l.latches {
		if lt.held && lt.owner != mode {
			cs = append(cs, robot.Control(i))
		}
	}
	return cs
}

// HeldBy returns the latched controls owned by mode.
func (l *Ledger) HeldBy(mode InputMode) []robot.Control {
	var cs []robot.Control
	for i, lt := range l.latches {
		if lt.held && lt.owner == mode {
			cs = append(cs, robot.Control(i))
		}
	}
	return cs
}

// undoPress reverts a Press whose command was not delivered.
func (l *Ledger) undoPress(c robot.Control) {
	l.latches[c] = latch{}
}

// undoRelease reverts a Release whose command was not delivered.
func (l *Ledger) undoRelease(c robot.Control, owner InputMode) {
	l.latches[c] = latch{held: true, owner: owner}
}
