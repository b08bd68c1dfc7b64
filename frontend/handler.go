// Package frontend supplies the host-side glue around the forwarding engine:
// an http.Handler that drives forward.Web and forward.WS against a configured
// upstream, renders status pages for failed exchanges, and records
// per-exchange logs and metrics.
package frontend

import (
	"log"
	"net/http"

	"github.com/icecave/courier/forward"
	"github.com/icecave/courier/metrics"
	"github.com/icecave/courier/statuspage"
)

// Handler is an http.Handler that forwards every request, including websocket
// upgrades, to the upstream origin described by Options.
type Handler struct {
	Options          *forward.Options
	StatusPageWriter statuspage.Writer
	Logger           *log.Logger
	Metrics          *metrics.Metrics
}

// ServeHTTP forwards the request to the upstream origin.
func (handler *Handler) ServeHTTP(w http.ResponseWriter, request *http.Request) {
	logContext := &LogContext{
		Logger:  handler.Logger,
		Request: request,
	}
	logContext.Timer.Start()

	if handler.Metrics != nil {
		handler.Metrics.ExchangesInFlight.Inc()
		defer handler.Metrics.ExchangesInFlight.Dec()
	}

	writer := &ResponseWriter{
		Inner: w,
		FirstWrite: func(int) {
			logContext.Timer.FirstByteSent()
		},
	}

	logContext.IsWebSocket = IsWebSocketUpgrade(request)

	var err error
	if logContext.IsWebSocket {
		err = handler.forwardUpgrade(writer, request)
	} else {
		err = forward.Web(writer, request, handler.Options)
	}

	// If the exchange failed before anything was sent, answer with a
	// status page.
	if err != nil && writer.StatusCode == 0 && !writer.Hijacked {
		handler.statusPage(writer, request, err)
	}

	if writer.Hijacked && err == nil {
		logContext.StatusCode = http.StatusSwitchingProtocols
	} else {
		logContext.StatusCode = writer.StatusCode
	}

	logContext.BytesOut = int64(writer.Size)
	logContext.Timer.LastByteSent()
	logContext.Log(err)

	if handler.Metrics != nil {
		handler.Metrics.ObserveExchange(
			logContext.IsWebSocket,
			logContext.StatusCode,
			logContext.Timer.TimeToLastByte/1000,
			logContext.BytesOut,
		)
	}
}

// forwardUpgrade hijacks the client connection and hands it to the engine's
// WS mode, replaying any bytes the server buffered past the preamble.
func (handler *Handler) forwardUpgrade(writer *ResponseWriter, request *http.Request) error {
	conn, buffered, err := writer.Hijack()
	if err != nil {
		return err
	}

	var head []byte
	if n := buffered.Reader.Buffered(); n > 0 {
		head, _ = buffered.Reader.Peek(n)
	}

	return forward.WS(request, conn, head, handler.Options)
}

func (handler *Handler) statusPage(
	writer http.ResponseWriter,
	request *http.Request,
	err error,
) {
	statusWriter := handler.StatusPageWriter
	if statusWriter == nil {
		statusWriter = statuspage.DefaultWriter
	}

	statusWriter.Write(writer, request, forward.StatusCode(err))
}
