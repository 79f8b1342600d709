package supervise

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// watchChild logs the child's memory and CPU usage at the configured
// interval until the run ends. Observation only: it never signals the
// child and never feeds the report, so a sampling failure is at worst a
// missing log line.
func (s *Supervisor) watchChild(pid int, done <-chan struct{}) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		s.log.Warnf("monitor pid %d: %v", pid, err)
		return
	}

	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			mem, err := proc.MemoryInfo()
			if err != nil {
				// child already gone
				return
			}
			times, err := proc.Times()
			if err != nil {
				return
			}
			s.log.Printf("monitor: pid=%d rss_kib=%d user=%.2fs system=%.2fs",
				pid, mem.RSS/1024, times.User, times.System)
		}
	}
}
