package tasks

import (
	"net"
	"time"
)

// NetworkGate is consulted before dispatching a cycle; an unreachable
// network skips the whole cycle silently.
type NetworkGate interface {
	Online() bool
}

var _ NetworkGate = (*DialGate)(nil)

// DialGate probes reachability with a short TCP dial.
type DialGate struct {
	addr    string
	timeout time.Duration
}

func NewDialGate(addr string) *DialGate {
	return &DialGate{
		addr:    addr,
		timeout: 2 * time.Second,
	}
}

func (g *DialGate) Online() bool {
	conn, err := net.DialTimeout("tcp", g.addr, g.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
