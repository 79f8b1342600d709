// wrapper runs the fixed ATO runner under a wall-clock deadline and writes
// a single JSON usage record to a caller-supplied file descriptor.
//
// Usage: wrapper [flags] <fd> <timeout-secs>
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mousetail/attempt-this-online/logger"
	"github.com/mousetail/attempt-this-online/supervise"
)

// The wrapper's own exit codes; the child's status lives in the report.
const (
	exitInternal = 1   // clock, rusage or report-write failure
	exitUsage    = 2   // bad arguments, bad descriptor, failed launch
	exitTimedOut = 124 // timeout with --preserve-status=false
)

var diag = logger.New("wrapper: ", os.Stderr)

// exitError carries a wrapper exit code out through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	var (
		signalName      string
		foreground      bool
		preserveStatus  bool
		monitorInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:           "wrapper <fd> <timeout-secs>",
		Short:         "Supervise the ATO runner with a hard deadline and report its resource usage",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := buildConfig(args, signalName, foreground, preserveStatus, monitorInterval)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVarP(&signalName, "signal", "s", "KILL", "signal delivered to the child on timeout")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "stay in the caller's process group")
	cmd.Flags().BoolVar(&preserveStatus, "preserve-status", true, "exit 0 after a timed-out run instead of 124")
	cmd.Flags().DurationVar(&monitorInterval, "monitor-interval", 0, "log child resource usage at this interval (0 disables)")

	if err := cmd.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			diag.Errorf("%s", msg)
		}
		os.Exit(exitCodeFor(err))
	}
}

func buildConfig(args []string, signalName string, foreground, preserveStatus bool, monitorInterval time.Duration) (supervise.Config, error) {
	var cfg supervise.Config

	fd, err := supervise.ParsePositiveInt(args[0])
	if err != nil {
		return cfg, &supervise.ConfigError{Reason: "output descriptor", Err: err}
	}
	secs, err := supervise.ParsePositiveInt(args[1])
	if err != nil {
		return cfg, &supervise.ConfigError{Reason: "timeout", Err: err}
	}
	sig, err := supervise.ParseSignal(signalName)
	if err != nil {
		return cfg, &supervise.ConfigError{Reason: "termination signal", Err: err}
	}

	cfg = supervise.Config{
		OutputFD:        fd,
		TimeoutSecs:     secs,
		TermSignal:      sig,
		Foreground:      foreground,
		PreserveStatus:  preserveStatus,
		MonitorInterval: monitorInterval,
		Target:          supervise.DefaultTarget,
	}
	return cfg, cfg.Validate()
}

func run(cfg supervise.Config) error {
	sup := supervise.New(cfg, diag)
	rep, err := sup.Run()
	if err != nil {
		var cfgErr *supervise.ConfigError
		if errors.As(err, &cfgErr) {
			return err
		}
		return &exitError{code: exitInternal, err: err}
	}

	out := os.NewFile(uintptr(cfg.OutputFD), "report")
	if out == nil {
		return &exitError{code: exitInternal, err: fmt.Errorf("descriptor %d unusable", cfg.OutputFD)}
	}
	if err := rep.Write(out); err != nil {
		return &exitError{code: exitInternal, err: err}
	}

	if rep.TimedOut && !cfg.PreserveStatus {
		return &exitError{code: exitTimedOut}
	}
	return nil
}

// exitCodeFor: explicit codes win; configuration errors and anything cobra
// itself rejects (arg count, unknown flags) are usage failures.
func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}
