package forward

import (
	"net/http"
)

// trackingWriter wraps the caller's response writer so the engine knows
// whether headers have been flushed, keeps the inbound idle watchdog fed
// while the response streams, and pushes each chunk to the client as soon
// as it is written.
type trackingWriter struct {
	inner       http.ResponseWriter
	dog         *watchdog
	wroteHeader bool
}

func (w *trackingWriter) Header() http.Header {
	return w.inner.Header()
}

func (w *trackingWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}

	w.wroteHeader = true
	w.inner.WriteHeader(statusCode)
}

func (w *trackingWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	n, err := w.inner.Write(data)
	if n > 0 {
		w.dog.reset()
	}

	if flusher, ok := w.inner.(http.Flusher); ok {
		flusher.Flush()
	}

	return n, err
}
