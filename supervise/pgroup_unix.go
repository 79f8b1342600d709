//go:build unix

package supervise

import "golang.org/x/sys/unix"

// joinOwnProcessGroup makes the wrapper a group leader before the child is
// started, so the child and everything it spawns share a group that a
// single group signal can reach. We move ourselves rather than the child;
// putting only the child in a new group would mean juggling foreground and
// background groups and propagating signals between them.
func joinOwnProcessGroup() error {
	return unix.Setpgid(0, 0)
}

// sendSignal delivers to the pid directly, never to the group, so the
// wrapper can't loop by signalling itself.
func sendSignal(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}
