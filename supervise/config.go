// Package supervise runs the fixed child program once under a wall-clock
// deadline, forwards externally delivered signals to it, and produces the
// usage report for the run.
package supervise

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// MaxTimeoutSecs bounds the deadline a caller may request.
	MaxTimeoutSecs = 60

	// DefaultTarget is the one program this build supervises.
	DefaultTarget = "/ATO/runner"
)

// Config is fixed at startup and immutable afterwards.
type Config struct {
	// OutputFD is an already-open writable descriptor the report goes to.
	OutputFD int
	// TimeoutSecs is the wall-clock deadline, 1 through MaxTimeoutSecs.
	TimeoutSecs int
	// TermSignal is delivered to the child when the deadline fires.
	TermSignal unix.Signal
	// Foreground keeps the wrapper in the caller's process group.
	Foreground bool
	// PreserveStatus makes a timed-out run exit 0 once the report is out;
	// when false the wrapper exits 124 instead.
	PreserveStatus bool
	// MonitorInterval enables periodic child resource sampling when > 0.
	MonitorInterval time.Duration
	// Target is the program to run. Only tests override the default.
	Target string
}

// ConfigError marks failures that must abort before any child exists.
// The wrapper maps it to exit code 2.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Validate checks the config against a live system: range checks plus a
// no-op flags query proving the output descriptor is actually open. Errors
// here go to stderr, never to the descriptor, since the descriptor itself
// may be the broken part.
func (c *Config) Validate() error {
	if c.TimeoutSecs < 1 || c.TimeoutSecs > MaxTimeoutSecs {
		return &ConfigError{Reason: fmt.Sprintf("timeout %d outside 1..%d", c.TimeoutSecs, MaxTimeoutSecs)}
	}
	if c.OutputFD < 1 {
		return &ConfigError{Reason: fmt.Sprintf("output descriptor %d not positive", c.OutputFD)}
	}
	if c.TermSignal < 1 || int(c.TermSignal) > 64 {
		return &ConfigError{Reason: fmt.Sprintf("termination signal %d out of range", c.TermSignal)}
	}
	if err := checkFD(c.OutputFD); err != nil {
		return &ConfigError{Reason: fmt.Sprintf("output descriptor %d", c.OutputFD), Err: err}
	}
	if c.Target == "" {
		return &ConfigError{Reason: "no target program"}
	}
	return nil
}

// ParsePositiveInt accepts strictly positive decimal integers only: no
// sign, no leading zero, no whitespace.
func ParsePositiveInt(s string) (int, error) {
	if s == "" || s[0] < '1' || s[0] > '9' {
		return 0, fmt.Errorf("%q is not a positive decimal integer", s)
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%q is not a positive decimal integer", s)
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return v, nil
}

// ParseSignal accepts a number ("9"), a short name ("KILL") or a full name
// ("SIGKILL"), case-insensitive.
func ParseSignal(s string) (unix.Signal, error) {
	if s == "" {
		return 0, fmt.Errorf("empty signal name")
	}
	if s[0] >= '0' && s[0] <= '9' {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 64 {
			return 0, fmt.Errorf("signal number %q out of range", s)
		}
		return unix.Signal(n), nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, fmt.Errorf("unknown signal %q", s)
	}
	return sig, nil
}
