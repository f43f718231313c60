// Package connectivity answers "is the network reachable right now".
package connectivity

import (
	"net"
	"time"
)

// Probe reports whether the network is currently reachable. It is
// re-evaluated on demand, never cached long-term.
type Probe func() bool

// NewDialProbe returns a probe that attempts a TCP dial to addr with the
// given timeout. Any successful connection counts as reachable.
func NewDialProbe(addr string, timeout time.Duration) Probe {
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

// Always returns a probe with a fixed answer, used in tests and to force
// offline mode.
func Always(reachable bool) Probe {
	return func() bool { return reachable }
}
