//go:build unix

package main

import (
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/mousetail/attempt-this-online/supervise"
)

func openPipeFD(t *testing.T) int {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return int(w.Fd())
}

func TestBuildConfig(t *testing.T) {
	fd := openPipeFD(t)

	cfg, err := buildConfig([]string{strconv.Itoa(fd), "30"}, "KILL", false, true, 0)
	require.NoError(t, err)

	assert.Equal(t, fd, cfg.OutputFD)
	assert.Equal(t, 30, cfg.TimeoutSecs)
	assert.Equal(t, unix.SIGKILL, cfg.TermSignal)
	assert.Equal(t, supervise.DefaultTarget, cfg.Target)
}

func TestBuildConfigRejections(t *testing.T) {
	fd := strconv.Itoa(openPipeFD(t))

	for name, args := range map[string][]string{
		"non-numeric fd":      {"abc", "30"},
		"non-numeric timeout": {fd, "3x"},
		"zero timeout":        {fd, "0"},
		"timeout over max":    {fd, "61"},
		"negative timeout":    {fd, "-5"},
	} {
		_, err := buildConfig(args, "KILL", false, true, 0)
		var cfgErr *supervise.ConfigError
		assert.ErrorAs(t, err, &cfgErr, name)
	}

	_, err := buildConfig([]string{fd, "30"}, "NOPE", false, true, 0)
	var cfgErr *supervise.ConfigError
	assert.ErrorAs(t, err, &cfgErr, "bad signal name")
}

func TestBuildConfigRejectsClosedDescriptor(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	closedFD := int(w.Fd())
	r.Close()
	w.Close()

	_, err = buildConfig([]string{strconv.Itoa(closedFD), "30"}, "KILL", false, true, time.Duration(0))
	var cfgErr *supervise.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, exitUsage, exitCodeFor(errors.New("accepts 2 arg(s)")))
	assert.Equal(t, exitUsage, exitCodeFor(&supervise.ConfigError{Reason: "timeout"}))
	assert.Equal(t, exitInternal, exitCodeFor(&exitError{code: exitInternal, err: errors.New("write report")}))
	assert.Equal(t, exitTimedOut, exitCodeFor(&exitError{code: exitTimedOut}))
}
