//go:build unix

package supervise

import (
	"os"

	"golang.org/x/sys/unix"
)

// The relay lets an external controller deliver an arbitrary signal to the
// child without knowing its pid: sending the wrapper SIGRTMIN+n forwards
// signal n to the child. The base is the glibc SIGRTMIN callers of kill(2)
// and sigqueue(3) observe, not the kernel's. The encoding caps the target
// at n <= 30, which covers every standard signal; real-time signals cannot
// themselves be relayed to the child.
const (
	relayBase = 34
	relayMax  = 64
)

func relaySignals() []os.Signal {
	sigs := make([]os.Signal, 0, relayMax-relayBase+1)
	for n := relayBase; n <= relayMax; n++ {
		sigs = append(sigs, unix.Signal(n))
	}
	return sigs
}

// relayTarget decodes a received relay signal into the signal to forward.
func relayTarget(sig os.Signal) (unix.Signal, bool) {
	s, ok := sig.(unix.Signal)
	if !ok || int(s) < relayBase || int(s) > relayMax {
		return 0, false
	}
	return unix.Signal(int(s) - relayBase), true
}
