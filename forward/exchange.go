package forward

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"go.uber.org/multierr"
)

// exchange is the per-call state shared between the forwarding goroutine,
// the idle watchdogs, and the relay. Whichever of them fails first wins;
// every other failure observed afterwards is discarded.
type exchange struct {
	options *Options
	inbound *http.Request
	cancel  context.CancelFunc

	// hijacked is true in WS mode, where the inbound request context is no
	// longer a reliable client-liveness signal.
	hijacked bool

	inboundDog  *watchdog
	upstreamDog *watchdog

	mu      sync.Mutex
	err     error
	closers []io.Closer
}

func newExchange(options *Options, inbound *http.Request, hijacked bool) *exchange {
	ex := &exchange{
		options:  options,
		inbound:  inbound,
		hijacked: hijacked,
	}

	ex.inboundDog = newWatchdog(options.Timeout, func() {
		ex.fail(errRequestTimeout)
	})
	ex.upstreamDog = newWatchdog(options.ProxyTimeout, func() {
		ex.fail(errGatewayTimeout)
	})

	return ex
}

// closeStreams closes each stream in order, returning primary if it is
// non-nil. Close failures are aggregated and surfaced only when there is no
// primary error, so a teardown triggered by a real failure reports that
// failure rather than the knock-on close noise. Streams already interrupted
// by a watchdog close without complaint.
func closeStreams(primary error, closers ...io.Closer) error {
	var closeErr error
	for _, closer := range closers {
		if err := closer.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			closeErr = multierr.Append(closeErr, err)
		}
	}

	if primary != nil {
		return primary
	}

	return closeErr
}

// addCloser registers a resource to be closed if the exchange fails from a
// watchdog, unblocking any reads in flight on it.
func (ex *exchange) addCloser(closer io.Closer) {
	ex.mu.Lock()
	ex.closers = append(ex.closers, closer)
	ex.mu.Unlock()
}

// fail records the first terminal error and interrupts all in-flight I/O.
func (ex *exchange) fail(err error) {
	ex.mu.Lock()
	if ex.err == nil {
		ex.err = err
	}
	closers := ex.closers
	ex.mu.Unlock()

	if ex.cancel != nil {
		ex.cancel()
	}

	for _, closer := range closers {
		closer.Close()
	}
}

// resolve performs teardown and produces the exchange's single completion
// value. The watchdogs are disarmed, the upstream context is canceled, and
// the first recorded error takes precedence over err, which is the outcome
// of the main forwarding path.
func (ex *exchange) resolve(err error) error {
	ex.inboundDog.stop()
	ex.upstreamDog.stop()

	if ex.cancel != nil {
		ex.cancel()
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.err != nil {
		return ex.err
	}
	if err == nil {
		return nil
	}

	// A client that went away is a completed exchange, not a failure.
	if !ex.hijacked && ex.inbound.Context().Err() != nil {
		return nil
	}

	ex.err = classify(err)

	return ex.err
}
