package supervise

import (
	"errors"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Exit codes inherited from the timeout(1) lineage for runs where the
// target never got to execute.
const (
	exitCanceled     = 125 // internal error while launching
	exitCannotInvoke = 126 // target exists but can't be executed
	exitNotFound     = 127 // target doesn't exist
)

// newLauncher builds the child command. Stdio passes through verbatim and
// the environment is inherited. The report descriptor does not reach the
// child because Run marks it close-on-exec first; fds inherited by the
// wrapper carry no FD_CLOEXEC and would otherwise leak through fork/exec.
func newLauncher(target string) *exec.Cmd {
	cmd := exec.Command(target)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	return cmd
}

// launchFatal reports whether a start failure happened at the fork level
// (process creation itself failed) rather than at exec. Fork failures
// abort the run outright, like a configuration error would.
func launchFatal(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOMEM)
}

// launchFailureCode maps an exec-level start failure to the status the
// child would have carried had the exec failed after fork.
func launchFailureCode(err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return exitNotFound
	case errors.Is(err, os.ErrPermission), errors.Is(err, unix.ENOEXEC):
		return exitCannotInvoke
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return exitCannotInvoke
	}
	return exitCanceled
}
