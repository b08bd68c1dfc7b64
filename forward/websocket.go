package forward

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// WS forwards a protocol-upgrade exchange to the upstream origin described
// by options. conn is the hijacked client connection and head holds any
// bytes already read past the request preamble; they are replayed to the
// upstream before live client data.
//
// On a successful upgrade the client receives the upstream's 101 preamble
// verbatim and the proxy becomes a transparent byte relay until either side
// terminates. WS closes conn on every error path; a non-nil return reports
// why the exchange ended.
func WS(r *http.Request, conn net.Conn, head []byte, options *Options) error {
	if err := options.validate(); err != nil {
		return closeStreams(err, conn)
	}
	if r.Method != http.MethodGet {
		return closeStreams(errMethodNotAllowed, conn)
	}
	if !strings.EqualFold(strings.TrimSpace(r.Header.Get("Upgrade")), "websocket") {
		return closeStreams(errUpgradeUnsupported, conn)
	}
	if viaContains(r.Header, options.ProxyName) {
		return closeStreams(errLoopDetected, conn)
	}

	tuneConn(conn)

	ex := newExchange(options, r, true)
	ex.addCloser(conn)

	// The inbound request context dies with the hijack, so the upstream
	// exchange gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	ex.cancel = cancel

	headers := buildUpstreamHeaders(
		r,
		conn.LocalAddr().String(),
		conn.RemoteAddr().String(),
		r.TLS != nil,
	)
	headers.Set("Connection", "upgrade")
	headers.Set("Upgrade", "websocket")
	addVia(headers, r, options.ProxyName)

	upstream, err := ex.buildUpstreamRequest(ctx, headers, http.NoBody)
	if err != nil {
		return ex.resolve(closeStreams(err, conn))
	}

	dialer := options.Dialer
	if dialer == nil {
		dialer = &netDialer{timeout: options.ProxyTimeout}
	}

	backend, err := dialer.Dial(upstream)
	if err != nil {
		return ex.resolve(closeStreams(err, conn))
	}
	ex.addCloser(backend)

	// The upstream idle limit covers the preamble write and the response
	// read; it is lifted once the connection becomes a relay.
	if options.ProxyTimeout > 0 {
		backend.SetDeadline(time.Now().Add(options.ProxyTimeout))
	}

	if err := writeRequestPreamble(backend, upstream); err != nil {
		return ex.resolve(closeStreams(err, backend, conn))
	}

	reader := bufio.NewReader(backend)
	response, err := http.ReadResponse(reader, upstream)
	if err != nil {
		return ex.resolve(closeStreams(err, backend, conn))
	}

	if response.StatusCode != http.StatusSwitchingProtocols {
		// The upstream declined to switch protocols. There is no response
		// writer to replay the response into; let the caller observe it,
		// then end the exchange.
		var hookErr error
		if options.OnResponse != nil {
			hookErr = options.OnResponse(nil, r, response)
		}

		return ex.resolve(closeStreams(hookErr, response.Body, backend, conn))
	}

	tuneConn(backend)
	ex.upstreamDog.stop()

	if err := writeUpgradePreamble(conn, response); err != nil {
		return ex.resolve(closeStreams(err, backend, conn))
	}

	var clientReader io.Reader = conn
	if len(head) > 0 {
		clientReader = io.MultiReader(bytes.NewReader(head), conn)
	}

	// reader may hold frame data that arrived with the 101; relaying from
	// it rather than the bare connection preserves those bytes.
	err = Pipe(
		&relayConn{Conn: conn, reader: clientReader, dog: ex.inboundDog},
		&relayConn{Conn: backend, reader: reader, dog: ex.inboundDog},
	)

	return ex.resolve(err)
}
