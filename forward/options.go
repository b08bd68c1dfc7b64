package forward

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Options controls how a single exchange is forwarded. Hostname and Port are
// required; everything else is optional. An Options value must not be mutated
// while an exchange that uses it is in flight.
type Options struct {
	// Hostname is the upstream host to forward to.
	Hostname string

	// Port is the upstream port to forward to.
	Port int

	// Timeout is the idle limit applied to the inbound request. If no data
	// moves between the client and the proxy, in either direction, for this
	// long the exchange fails with a 408. Zero means no limit.
	Timeout time.Duration

	// ProxyTimeout is the idle limit applied to the upstream request,
	// covering connection establishment, response headers and gaps between
	// body chunks. If the upstream produces no data for this long the
	// exchange fails with a 504. Zero means no limit.
	ProxyTimeout time.Duration

	// ProxyName is this proxy's identity. When set it is appended to the
	// Via header sent upstream, and any inbound request whose Via chain
	// already contains the name is refused with a 508.
	ProxyName string

	// OnRequest, if non-nil, is called with the inbound request and the
	// upstream request the engine has built, before the upstream is
	// contacted. It may adjust the upstream request in place, or return a
	// replacement to be used instead. Returning an error aborts the
	// exchange.
	OnRequest func(inbound *http.Request, upstream *http.Request) (*http.Request, error)

	// OnResponse, if non-nil, is called with the upstream response after
	// its headers have been copied to the response writer but before they
	// are flushed. It is the only hook that may mutate the outbound status
	// or headers. In WS mode the writer argument is nil. Returning an
	// error aborts the exchange.
	OnResponse func(w http.ResponseWriter, inbound *http.Request, upstream *http.Response) error

	// Transport overrides the round-tripper used to contact the upstream
	// in web mode. Use this to forward over a unix socket, a pooled agent
	// with custom limits, etc.
	Transport http.RoundTripper

	// Dialer overrides how the upstream connection is established in WS
	// mode.
	Dialer Dialer
}

func (options *Options) validate() error {
	if options == nil {
		return errors.New("forward: options are required")
	}
	if options.Hostname == "" {
		return errors.New("forward: upstream hostname is required")
	}
	if options.Port <= 0 || options.Port > 65535 {
		return errors.New("forward: upstream port is required")
	}

	return nil
}

// upstreamAddress returns the host:port of the upstream origin.
func (options *Options) upstreamAddress() string {
	return net.JoinHostPort(options.Hostname, strconv.Itoa(options.Port))
}
