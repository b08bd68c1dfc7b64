package forward

import (
	"context"
	"io"
	"net/http"
)

// Web forwards a request/response exchange to the upstream origin described
// by options, streaming the response body back through w. It returns once
// the exchange has fully completed and every resource it acquired has been
// released.
//
// A non-nil return is a terminal failure; if it occurred before response
// headers were flushed the caller is responsible for answering the client,
// using StatusCode to pick the status. Web never writes an error body
// itself.
func Web(w http.ResponseWriter, r *http.Request, options *Options) error {
	if err := options.validate(); err != nil {
		return err
	}
	if viaContains(r.Header, options.ProxyName) {
		return errLoopDetected
	}

	ex := newExchange(options, r, false)

	ctx, cancel := context.WithCancel(r.Context())
	ex.cancel = cancel

	headers := buildUpstreamHeaders(r, localAddress(r), r.RemoteAddr, r.TLS != nil)
	addVia(headers, r, options.ProxyName)

	body := io.ReadCloser(r.Body)
	if ex.inboundDog != nil {
		body = &activityReader{reader: r.Body, dog: ex.inboundDog}
	}
	if r.Body != nil {
		ex.addCloser(r.Body)
	}

	upstream, err := ex.buildUpstreamRequest(ctx, headers, body)
	if err != nil {
		return ex.resolve(err)
	}

	transport := options.Transport
	if transport == nil {
		transport = DefaultTransport
	}

	response, err := transport.RoundTrip(upstream)
	if err != nil {
		return ex.resolve(err)
	}
	defer response.Body.Close()

	ex.upstreamDog.reset()

	// An upstream protocol switch cannot be relayed through a response
	// writer; WS mode exists for that.
	if response.StatusCode == http.StatusSwitchingProtocols {
		return ex.resolve(errWebUpgrade)
	}

	writer := &trackingWriter{inner: w, dog: ex.inboundDog}

	stripHopByHop(response.Header)
	for name, values := range response.Header {
		writer.Header()[name] = values
	}

	if options.OnResponse != nil {
		if err := options.OnResponse(writer, r, response); err != nil {
			return ex.resolve(err)
		}
	}

	if !writer.wroteHeader {
		writer.WriteHeader(response.StatusCode)
	}

	_, err = io.Copy(writer, &activityReader{
		reader: response.Body,
		dog:    ex.upstreamDog,
	})

	return ex.resolve(err)
}
