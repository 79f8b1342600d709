//go:build unix && !linux

package supervise

// Non-Linux unix has no timerfd; the fallback timer is the only source.
func (s *Supervisor) armTimer() (<-chan struct{}, func()) {
	return s.armFallbackTimer(make(chan struct{}, 1))
}
