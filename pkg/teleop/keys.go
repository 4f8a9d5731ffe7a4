package teleop

import (
	"sort"
	"time"
)

// HoldTracker turns terminal key presses, which arrive with auto-repeat
// and without release events, into press and release edges. A key counts
// as released once no repeat has arrived for the timeout.
type HoldTracker struct {
	timeout   time.Duration
	deadlines map[string]time.Time
}

// NewHoldTracker creates a tracker with the given release timeout.
func NewHoldTracker(timeout time.Duration) *HoldTracker {
	return &HoldTracker{
		timeout:   timeout,
		deadlines: make(map[string]time.Time),
	}
}

// Press records a key event at now. It returns true for the first event of
// a hold and false for auto-repeats.
func (h *HoldTracker) Press(key string, now time.Time) bool {
	_, held := h.deadlines[key]
	h.deadlines[key] = now.Add(h.timeout)
	return !held
}

// Expire returns the keys whose hold has lapsed at now, sorted, and forgets
// them.
func (h *HoldTracker) Expire(now time.Time) []string {
	var keys []string
	for key, deadline := range h.deadlines {
		if !now.Before(deadline) {
			keys = append(keys, key)
			delete(h.deadlines, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ReleaseAll forgets every held key and returns them sorted.
func (h *HoldTracker) ReleaseAll() []string {
	keys := make([]string, 0, len(h.deadlines))
	for key := range h.deadlines {
		keys = append(keys, key)
	}
	clear(h.deadlines)
	sort.Strings(keys)
	return keys
}

// Held reports whether key is currently held.
func (h *HoldTracker) Held(key string) bool {
	_, ok := h.deadlines[key]
	return ok
}
