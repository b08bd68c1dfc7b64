package forward

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultTransport is the round-tripper used to contact upstream origins in
// web mode when Options.Transport is nil. Compression is left to the two
// endpoints; the proxy never transforms payloads.
var DefaultTransport http.RoundTripper = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: keepAlivePeriod,
	}).DialContext,
	MaxIdleConns:          100,
	IdleConnTimeout:       90 * time.Second,
	ExpectContinueTimeout: time.Second,
	DisableCompression:    true,
}

// Dialer establishes the raw upstream connection for a WS-mode exchange.
// The request describes the upstream exchange that will be written over the
// connection.
type Dialer interface {
	Dial(*http.Request) (net.Conn, error)
}

// netDialer is the default Dialer.
type netDialer struct {
	timeout time.Duration
}

func (d *netDialer) Dial(request *http.Request) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: d.timeout}

	return dialer.DialContext(request.Context(), "tcp", request.URL.Host)
}

// buildUpstreamRequest assembles the HTTP/1.1 request that describes the
// upstream exchange: the inbound method and raw path, the rewritten header
// set, and the inbound authority. The OnRequest hook may adjust it or
// replace it wholesale.
func (ex *exchange) buildUpstreamRequest(
	ctx context.Context,
	headers http.Header,
	body io.ReadCloser,
) (*http.Request, error) {
	inbound := ex.inbound

	upstream := (&http.Request{
		Method: inbound.Method,
		URL: &url.URL{
			Scheme:   "http",
			Host:     ex.options.upstreamAddress(),
			Path:     inbound.URL.Path,
			RawPath:  inbound.URL.RawPath,
			RawQuery: inbound.URL.RawQuery,
		},
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          body,
		ContentLength: inbound.ContentLength,
		Host:          inbound.Host,
	}).WithContext(ctx)

	if ex.options.OnRequest != nil {
		replacement, err := ex.options.OnRequest(inbound, upstream)
		if err != nil {
			return nil, err
		}
		if replacement != nil {
			upstream = replacement
		}
	}

	return upstream, nil
}

// writeRequestPreamble writes the request line and headers of request to
// writer, as sent on the wire.
func writeRequestPreamble(writer io.Writer, request *http.Request) error {
	if _, err := fmt.Fprintf(
		writer,
		"%s %s HTTP/1.1\r\n",
		request.Method,
		request.URL.RequestURI(),
	); err != nil {
		return err
	}

	if request.Host != "" {
		if _, err := fmt.Fprintf(writer, "Host: %s\r\n", request.Host); err != nil {
			return err
		}
	}

	if err := request.Header.Write(writer); err != nil {
		return err
	}

	_, err := io.WriteString(writer, "\r\n")

	return err
}

// writeUpgradePreamble relays a 101 response to the client: the status line,
// every upstream header (one line per value), and the terminating blank
// line.
func writeUpgradePreamble(writer io.Writer, response *http.Response) error {
	if _, err := io.WriteString(
		writer,
		"HTTP/1.1 101 Switching Protocols\r\n",
	); err != nil {
		return err
	}

	if err := response.Header.Write(writer); err != nil {
		return err
	}

	_, err := io.WriteString(writer, "\r\n")

	return err
}

// localAddress returns the proxy-side address of the inbound connection.
func localAddress(request *http.Request) string {
	if addr, ok := request.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		return addr.String()
	}

	return ""
}
