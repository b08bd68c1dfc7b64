// Package proxyprotocol wraps raw connections so that client addresses
// conveyed by a PROXY protocol header (v1 or v2) are surfaced through the
// standard net.Conn interface. This keeps the addresses fed into the
// forwarding engine's Forwarded synthesis accurate when the proxy sits
// behind a load balancer.
package proxyprotocol

import (
	"bufio"
	"net"
	"time"

	proxyproto "github.com/pires/go-proxyproto"
)

// Conn is a net.Conn compatible struct that handles PROXY header checking.
type Conn struct {
	reader *bufio.Reader
	conn   net.Conn
	remote net.Addr
	local  net.Addr
	header *proxyproto.Header
}

// NewConn returns a connection that parses a PROXY protocol header from the
// start of the stream and supplies a net.Conn compatible interface. A stream
// that does not begin with a PROXY header is passed through untouched.
func NewConn(inner net.Conn) (net.Conn, error) {
	conn := &Conn{
		conn:   inner,
		reader: bufio.NewReader(inner),
	}
	if err := conn.readHeader(); err != nil {
		return nil, err
	}

	return conn, nil
}

func (c *Conn) readHeader() error {
	header, err := proxyproto.Read(c.reader)
	switch err {
	case
		proxyproto.ErrNoProxyProtocol,
		proxyproto.ErrInvalidLength:
		// Not a PROXY protocol connection, keep going with the raw stream.
		return nil
	case nil:
		c.header = header
		c.local = NewProxyAddr(header.TransportProtocol, header.DestinationAddress, header.DestinationPort)
		c.remote = NewProxyAddr(header.TransportProtocol, header.SourceAddress, header.SourcePort)
		return nil
	default:
		return err
	}
}

// Read reads data from the connection.
func (c *Conn) Read(b []byte) (n int, err error) {
	return c.reader.Read(b)
}

// Write writes data to the connection.
func (c *Conn) Write(b []byte) (n int, err error) {
	return c.conn.Write(b)
}

// Close closes the connection. Any blocked Read or Write operations will be
// unblocked and return errors.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// LocalAddr returns the local network address. If the stream began with a
// PROXY header, the address conveyed by the header is returned instead.
func (c *Conn) LocalAddr() net.Addr {
	if c.header == nil || c.local == nil {
		return c.conn.LocalAddr()
	}

	return c.local
}

// RemoteAddr returns the remote network address. If the stream began with a
// PROXY header, the address conveyed by the header is returned instead.
func (c *Conn) RemoteAddr() net.Addr {
	if c.header == nil || c.remote == nil {
		return c.conn.RemoteAddr()
	}

	return c.remote
}

// SetDeadline sets the read and write deadlines associated with the
// connection.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline sets the deadline for future Read calls and any
// currently-blocked Read call.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the deadline for future Write calls and any
// currently-blocked Write call.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}
