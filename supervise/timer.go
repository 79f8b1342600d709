package supervise

import "time"

// armFallbackTimer is the single-second-resolution fallback, the moral
// equivalent of alarm(2).
func (s *Supervisor) armFallbackTimer(expired chan struct{}) (<-chan struct{}, func()) {
	t := time.AfterFunc(time.Duration(s.cfg.TimeoutSecs)*time.Second, func() {
		expired <- struct{}{}
	})
	return expired, func() { t.Stop() }
}
