// Package report defines the usage record the wrapper emits once per run
// and the decoding of the child's wait status into it.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Status classifies how the child ended.
type Status string

const (
	StatusExited   Status = "exited"
	StatusKilled   Status = "killed"
	StatusCoreDump Status = "core_dump"
	StatusUnknown  Status = "unknown"
)

// Report is the single record written to the output descriptor. Struct
// field order is the wire contract; consumers parse positionally ordered
// JSON, so do not reorder fields.
type Report struct {
	TimedOut        bool   `json:"timed_out"`
	StatusType      Status `json:"status_type"`
	StatusValue     int    `json:"status_value"`
	UserNS          int64  `json:"user"`
	KernelNS        int64  `json:"kernel"`
	RealNS          int64  `json:"real"`
	MaxMemKB        int64  `json:"max_mem"`
	MajorPageFaults int64  `json:"major_page_faults"`
	MinorPageFaults int64  `json:"minor_page_faults"`
	InputOps        int64  `json:"input_ops"`
	OutputOps       int64  `json:"output_ops"`
	Waits           int64  `json:"waits"`
	Preemptions     int64  `json:"preemptions"`
}

// DecodeWaitStatus maps a reaped wait status to its report classification.
// Anything that is neither a normal exit nor a signal death should not
// occur once the child has actually been reaped; it is reported as unknown
// rather than crashing the run.
func DecodeWaitStatus(ws unix.WaitStatus) (Status, int) {
	switch {
	case ws.Exited():
		return StatusExited, ws.ExitStatus()
	case ws.Signaled():
		if ws.CoreDump() {
			return StatusCoreDump, int(ws.Signal())
		}
		return StatusKilled, int(ws.Signal())
	default:
		return StatusUnknown, -1
	}
}

// FillRusage copies the child's resource counters into the report,
// converting the CPU timevals to nanoseconds. Nanoseconds in a minute
// overflow 32 bits, hence the widening before multiply.
func (r *Report) FillRusage(ru *unix.Rusage) {
	r.UserNS = timevalNS(ru.Utime)
	r.KernelNS = timevalNS(ru.Stime)
	r.MaxMemKB = int64(ru.Maxrss)
	r.MajorPageFaults = int64(ru.Majflt)
	r.MinorPageFaults = int64(ru.Minflt)
	r.InputOps = int64(ru.Inblock)
	r.OutputOps = int64(ru.Oublock)
	r.Waits = int64(ru.Nvcsw)
	r.Preemptions = int64(ru.Nivcsw)
}

func timevalNS(tv unix.Timeval) int64 {
	return int64(tv.Sec)*1_000_000_000 + int64(tv.Usec)*1_000
}

// Write emits the record as one object plus a trailing newline in a single
// write. A failed write must surface as an error; a partial record may
// never look like success downstream.
func (r *Report) Write(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
