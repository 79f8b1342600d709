//go:build linux

package supervise

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"
)

// armTimer arms the deadline. Preferred source is a monotonic timerfd; on
// any creation or arming failure the run degrades to the whole-second
// fallback instead of aborting. A late or coarse timeout beats running with
// no timeout at all.
func (s *Supervisor) armTimer() (<-chan struct{}, func()) {
	expired := make(chan struct{}, 1)

	// Non-blocking so the os.File lands on the runtime poller and Close
	// can interrupt the read when the child beats the deadline.
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		if err != unix.ENOSYS {
			s.log.Warnf("timerfd_create: %v", err)
		}
		return s.armFallbackTimer(expired)
	}

	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(int64(s.cfg.TimeoutSecs) * 1e9),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		s.log.Warnf("timerfd_settime: %v", err)
		unix.Close(fd)
		return s.armFallbackTimer(expired)
	}

	f := os.NewFile(uintptr(fd), "timerfd")
	go func() {
		var buf [8]byte
		n, err := f.Read(buf[:])
		if err != nil || n != 8 || binary.NativeEndian.Uint64(buf[:]) == 0 {
			return
		}
		expired <- struct{}{}
	}()
	return expired, func() { f.Close() }
}
