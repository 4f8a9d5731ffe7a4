package teleop

import (
	"sync"

	"github.com/gwillem/armctl/pkg/robot"
)

// StatusCache holds the most recent device status. Only successful
// read-backs overwrite it.
type StatusCache struct {
	mu     sync.RWMutex
	status robot.DeviceStatus
	valid  bool
}

// Update replaces the cached status.
func (s *StatusCache) Update(st robot.DeviceStatus) {
	s.mu.Lock()
	s.status = st
	s.valid = true
	s.mu.Unlock()
}

// Get returns the cached status and whether any status was ever read.
func (s *StatusCache) Get() (robot.DeviceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.valid
}
