package supervise

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mousetail/attempt-this-online/logger"
	"github.com/mousetail/attempt-this-online/report"
)

// Supervisor owns one run: process-group setup, signal subscription, the
// child's lifecycle, deadline enforcement and the assembled usage report.
// It is not reusable; a run supervises exactly one child and reports
// exactly once.
type Supervisor struct {
	cfg Config
	log *logger.Logger

	// pid is written once when the child starts and is read-only
	// afterwards. timedOut is set at most once on the deadline path and
	// read only after the child is reaped.
	pid      int
	timedOut atomic.Bool
}

func New(cfg Config, log *logger.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, log: log}
}

// Run starts the child and blocks until it has been reaped, then returns
// the completed report. Every error path that still represents a finished
// run returns a report; a nil report means the run failed outright.
//
// Ordering is the load-bearing part:
//
//  1. join our own process group (unless foreground) so group signals
//     reach all descendants;
//  2. subscribe every handled signal, including the relay range, before
//     the child exists, so nothing delivered between start and exec can
//     be missed - the channel buffers are the pending set;
//  3. start the child, then arm the timer;
//  4. loop: non-blocking reap poll, then block on the event channels.
//     A SIGCHLD landing after a failed poll sits in the buffer, so the
//     check-then-wait pair cannot miss the wakeup;
//  5. after the reap, no signal is ever sent again, which is what keeps
//     us from killing a recycled pid.
func (s *Supervisor) Run() (*report.Report, error) {
	if !s.cfg.Foreground {
		if err := joinOwnProcessGroup(); err != nil {
			s.log.Warnf("setpgid: %v", err)
		}
	}

	events := make(chan os.Signal, 64)
	signal.Notify(events,
		unix.SIGALRM,
		unix.SIGINT,
		unix.SIGQUIT,
		unix.SIGHUP,
		unix.SIGTERM,
		s.cfg.TermSignal,
		unix.SIGCHLD,
		// Handled-and-dropped so a background run doesn't stop for the
		// tty. Handled (not ignored) also means the child reverts to the
		// default dispositions across exec with no work on its side.
		unix.SIGTTIN,
		unix.SIGTTOU,
	)
	defer signal.Stop(events)

	relay := make(chan os.Signal, 16)
	signal.Notify(relay, relaySignals()...)
	defer signal.Stop(relay)

	// The child must not inherit write access to the report channel. The
	// descriptor survived our own exec, so its close-on-exec flag is
	// necessarily clear until set here; fork/exec strips only FD_CLOEXEC
	// descriptors, it does not close inherited fds.
	if s.cfg.OutputFD > 0 {
		if err := setCloseOnExec(s.cfg.OutputFD); err != nil {
			s.log.Warnf("fcntl FD_CLOEXEC on %d: %v", s.cfg.OutputFD, err)
		}
	}

	start := time.Now()

	cmd := newLauncher(s.cfg.Target)
	if err := cmd.Start(); err != nil {
		return s.launchFailureReport(start, err)
	}
	s.pid = cmd.Process.Pid

	// Timer is armed only once the child exists, same as the original
	// ordering; a pre-start expiry would have nothing to kill.
	expired, stopTimer := s.armTimer()
	defer stopTimer()

	var monitorDone chan struct{}
	if s.cfg.MonitorInterval > 0 {
		monitorDone = make(chan struct{})
		go s.watchChild(s.pid, monitorDone)
	}

	ws, ru, waitErr := s.superviseLoop(events, relay, expired)
	end := time.Now()
	if monitorDone != nil {
		close(monitorDone)
	}

	rep := &report.Report{TimedOut: s.timedOut.Load()}
	if waitErr != nil {
		// Should not happen on a conforming system. Still report rather
		// than crash; the status is simply unknown.
		s.log.Warnf("wait: %v", waitErr)
		rep.StatusType, rep.StatusValue = report.StatusUnknown, -1
	} else {
		rep.StatusType, rep.StatusValue = report.DecodeWaitStatus(ws)
	}
	rep.RealNS = end.Sub(start).Nanoseconds()
	rep.FillRusage(&ru)
	return rep, nil
}

// superviseLoop waits for the child to be reapable while forwarding
// signals. The WNOHANG poll plus buffered channel receive is the atomic
// check-then-wait this design hinges on; replacing it with a sleep-poll
// loop would reopen the missed-wakeup race.
func (s *Supervisor) superviseLoop(events, relay <-chan os.Signal, expired <-chan struct{}) (unix.WaitStatus, unix.Rusage, error) {
	var (
		ws unix.WaitStatus
		ru unix.Rusage
	)
	for {
		reaped, err := unix.Wait4(s.pid, &ws, unix.WNOHANG, &ru)
		if err != nil && err != unix.EINTR {
			return ws, ru, fmt.Errorf("wait4 %d: %w", s.pid, err)
		}
		if reaped == s.pid {
			return ws, ru, nil
		}

		select {
		case <-expired:
			s.deadlineFired()
		case sig := <-events:
			s.handleSignal(sig)
		case sig := <-relay:
			if target, ok := relayTarget(sig); ok {
				s.forward(target)
			}
		}
	}
}

func (s *Supervisor) handleSignal(sig os.Signal) {
	switch sig {
	case unix.SIGCHLD:
		// next poll reaps
	case unix.SIGTTIN, unix.SIGTTOU:
		// dropped; see Notify call
	case unix.SIGALRM:
		// An externally delivered alarm counts the same as our own timer.
		s.deadlineFired()
	default:
		if termSig, ok := sig.(unix.Signal); ok {
			s.forward(termSig)
		}
	}
}

// deadlineFired flips the timed-out flag (set once, never reset) and
// delivers the configured termination signal.
func (s *Supervisor) deadlineFired() {
	s.timedOut.Store(true)
	s.forward(s.cfg.TermSignal)
}

// forward delivers sig to the child. With no child yet the wrapper behaves
// as if the default disposition had run and dies with the conventional
// 128+signal status.
func (s *Supervisor) forward(sig unix.Signal) {
	if s.pid == 0 {
		os.Exit(128 + int(sig))
	}
	if err := sendSignal(s.pid, sig); err != nil && err != unix.ESRCH {
		s.log.Warnf("kill %d with %d: %v", s.pid, sig, err)
	}
}

// launchFailureReport handles start errors. The exec never happened, so no
// wait status exists; the run is still concluded with exactly one report
// carrying the historical failure code for the cause. Usage counters come
// from a real RUSAGE_CHILDREN query - all zero, but measured, never
// fabricated.
func (s *Supervisor) launchFailureReport(start time.Time, err error) (*report.Report, error) {
	if launchFatal(err) {
		return nil, &ConfigError{Reason: "start child", Err: err}
	}
	s.log.Errorf("exec %s: %v", s.cfg.Target, err)

	var ru unix.Rusage
	if gerr := unix.Getrusage(unix.RUSAGE_CHILDREN, &ru); gerr != nil {
		return nil, fmt.Errorf("getrusage: %w", gerr)
	}

	rep := &report.Report{
		StatusType:  report.StatusExited,
		StatusValue: launchFailureCode(err),
	}
	rep.RealNS = time.Since(start).Nanoseconds()
	rep.FillRusage(&ru)
	return rep, nil
}
