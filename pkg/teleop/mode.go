package teleop

import "fmt"

// InputMode selects which input source may issue commands.
type InputMode int

const (
	Pointer InputMode = iota
	Keyboard
	Controller
)

// AllModes returns the input modes in selection order.
func AllModes() []InputMode {
	return []InputMode{Pointer, Keyboard, Controller}
}

func (m InputMode) String() string {
	switch m {
	case Pointer:
		return "pointer"
	case Keyboard:
		return "keyboard"
	case Controller:
		return "controller"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode.
func (m InputMode) Valid() bool {
	return m >= Pointer && m <= Controller
}

// Next returns the mode after m, wrapping around.
func (m InputMode) Next() InputMode {
	return (m + 1) % InputMode(len(AllModes()))
}

// ParseInputMode looks up a mode by name.
func ParseInputMode(s string) (InputMode, error) {
	for _, m := range AllModes() {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown input mode %q", s)
}

// Arbiter holds the single authorized input mode. It is not safe for
// concurrent use; the Engine guards it.
type Arbiter struct {
	mode InputMode
}

// NewArbiter creates an arbiter authorizing initial.
func NewArbiter(initial InputMode) *Arbiter {
	return &Arbiter{mode: initial}
}

// Mode returns the authorized mode.
func (a *Arbiter) Mode() InputMode {
	return a.mode
}

// Authorized reports whether m may issue commands.
func (a *Arbiter) Authorized(m InputMode) bool {
	return a.mode == m
}

// Set authorizes m and returns the previous mode. changed is false when m
// was already authorized or is not a valid mode.
func (a *Arbiter) Set(m InputMode) (prev InputMode, changed bool) {
	prev = a.mode
	if !m.Valid() || m == prev {
		return prev, false
	}
	a.mode = m
	return prev, true
}
