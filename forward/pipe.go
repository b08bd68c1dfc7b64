package forward

import (
	"errors"
	"io"
	"net"
	"sync"
)

// Pipe relays bytes between two connections in both directions until either
// side terminates. The first direction to finish closes both connections,
// which unblocks the other; Pipe returns after both directions have fully
// stopped.
func Pipe(lhs, rhs net.Conn) error {
	var group sync.WaitGroup
	results := make(chan error, 2)

	group.Add(2)
	go pipe(&group, results, lhs, rhs)
	go pipe(&group, results, rhs, lhs)

	err := <-results
	closeErr := closeStreams(nil, lhs, rhs)
	group.Wait()

	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if err != nil {
		return err
	}

	return closeErr
}

func pipe(group *sync.WaitGroup, results chan<- error, source, target net.Conn) {
	defer group.Done()

	_, err := io.Copy(target, source)
	results <- err
}

// relayConn redirects the read side of a connection through reader, so that
// bytes consumed from the stream before the relay started (an upgrade head,
// a parser's buffered remainder) are replayed in order. Progress in either
// direction feeds the idle watchdog.
type relayConn struct {
	net.Conn
	reader io.Reader
	dog    *watchdog
}

func (c *relayConn) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	if n > 0 {
		c.dog.reset()
	}

	return n, err
}

func (c *relayConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 {
		c.dog.reset()
	}

	return n, err
}
