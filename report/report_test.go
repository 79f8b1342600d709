//go:build linux

package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWriteFieldOrder(t *testing.T) {
	rep := &Report{
		TimedOut:        true,
		StatusType:      StatusKilled,
		StatusValue:     9,
		UserNS:          1500000000,
		KernelNS:        250000000,
		RealNS:          2000000001,
		MaxMemKB:        10240,
		MajorPageFaults: 1,
		MinorPageFaults: 900,
		InputOps:        3,
		OutputOps:       4,
		Waits:           17,
		Preemptions:     2,
	}

	var buf bytes.Buffer
	require.NoError(t, rep.Write(&buf))

	want := `{"timed_out":true,"status_type":"killed","status_value":9,` +
		`"user":1500000000,"kernel":250000000,"real":2000000001,` +
		`"max_mem":10240,"major_page_faults":1,"minor_page_faults":900,` +
		`"input_ops":3,"output_ops":4,"waits":17,"preemptions":2}` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestDecodeWaitStatus(t *testing.T) {
	// Raw Linux wait status encodings: exit code in the second byte,
	// terminating signal in the low seven bits, core flag at 0x80.
	tests := []struct {
		name      string
		ws        unix.WaitStatus
		wantType  Status
		wantValue int
	}{
		{"exit zero", unix.WaitStatus(0x0000), StatusExited, 0},
		{"exit seven", unix.WaitStatus(7 << 8), StatusExited, 7},
		{"sigkill", unix.WaitStatus(9), StatusKilled, 9},
		{"sigterm", unix.WaitStatus(15), StatusKilled, 15},
		{"sigquit with core", unix.WaitStatus(3 | 0x80), StatusCoreDump, 3},
		{"stopped is unknown", unix.WaitStatus(0x137f), StatusUnknown, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotValue := DecodeWaitStatus(tt.ws)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantValue, gotValue)
		})
	}
}

func TestFillRusageConvertsToNanoseconds(t *testing.T) {
	ru := &unix.Rusage{
		Utime:  unix.Timeval{Sec: 61, Usec: 5},
		Stime:  unix.Timeval{Sec: 0, Usec: 250000},
		Maxrss: 4096,
		Minflt: 12,
		Majflt: 1,
		Nvcsw:  3,
		Nivcsw: 4,
	}

	var rep Report
	rep.FillRusage(ru)

	// 61s in nanoseconds exceeds 32 bits; the conversion must not truncate.
	assert.Equal(t, int64(61000005000), rep.UserNS)
	assert.Equal(t, int64(250000000), rep.KernelNS)
	assert.Equal(t, int64(4096), rep.MaxMemKB)
	assert.Equal(t, int64(12), rep.MinorPageFaults)
	assert.Equal(t, int64(1), rep.MajorPageFaults)
	assert.Equal(t, int64(3), rep.Waits)
	assert.Equal(t, int64(4), rep.Preemptions)
}
