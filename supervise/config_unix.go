//go:build unix

package supervise

import "golang.org/x/sys/unix"

// checkFD probes the descriptor with a no-op flags query. It proves the fd
// is open without reading or writing anything through it.
func checkFD(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err
}

// setCloseOnExec marks the report descriptor close-on-exec so the child
// cannot inherit write access to the report channel. The flag only takes
// effect across exec; the wrapper's own report write is unaffected.
func setCloseOnExec(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC)
	return err
}
