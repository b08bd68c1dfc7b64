package forward

import (
	"net"
	"time"
)

// keepAlivePeriod is the probe interval applied to connections the proxy
// holds open for full-duplex streaming.
const keepAlivePeriod = 30 * time.Second

// tuneConn prepares a raw connection for long-lived full-duplex streaming:
// idle deadlines are cleared, small writes are sent immediately, and TCP
// keep-alive probes detect silently dropped peers.
func tuneConn(conn net.Conn) {
	_ = conn.SetDeadline(time.Time{})

	type tunable interface {
		SetNoDelay(bool) error
		SetKeepAlive(bool) error
		SetKeepAlivePeriod(time.Duration) error
	}

	if tcp, ok := conn.(tunable); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetKeepAlive(true)
		_ = tcp.SetKeepAlivePeriod(keepAlivePeriod)
	}
}
