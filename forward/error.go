package forward

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Error is a terminal exchange failure annotated with the HTTP status the
// host should answer with, and a short machine-readable code where one
// exists. The engine never writes an error body to the client itself; the
// host formats the response based on this value.
type Error struct {
	StatusCode int
	Code       string
	Err        error
}

// Error returns the message of the underlying error.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return strings.ToLower(http.StatusText(e.StatusCode))
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status a host should answer with for err. It
// returns 500 for errors that carry no status, and 0 for a nil error.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}

	return http.StatusInternalServerError
}

var (
	errLoopDetected = &Error{
		StatusCode: http.StatusLoopDetected,
		Err:        errors.New("proxying loop detected"),
	}
	errMethodNotAllowed = &Error{
		StatusCode: http.StatusMethodNotAllowed,
		Err:        errors.New("upgrade requests must use the GET method"),
	}
	errUpgradeUnsupported = &Error{
		StatusCode: http.StatusBadRequest,
		Err:        errors.New("only websocket upgrades are supported"),
	}
	errRequestTimeout = &Error{
		StatusCode: http.StatusRequestTimeout,
		Err:        errors.New("request timeout"),
	}
	errGatewayTimeout = &Error{
		StatusCode: http.StatusGatewayTimeout,
		Err:        errors.New("upstream timeout"),
	}
	errWebUpgrade = &Error{
		StatusCode: http.StatusBadGateway,
		Err:        errors.New("upstream attempted a protocol upgrade outside of WS mode"),
	}
)

// classify maps a transport-level failure to an Error carrying the status
// the host should answer with. For an error that already carries a status,
// the *Error found in its chain is returned as is.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "ECONNREFUSED",
			Err:        err,
		}

	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{
			StatusCode: http.StatusBadGateway,
			Code:       "ECONNRESET",
			Err:        err,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "ENOTFOUND",
			Err:        err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{
			StatusCode: http.StatusGatewayTimeout,
			Err:        err,
		}
	}

	// The stdlib reports upstream framing violations as opaque strings.
	if strings.Contains(err.Error(), "malformed HTTP") {
		return &Error{
			StatusCode: http.StatusBadGateway,
			Err:        err,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return &Error{
			StatusCode: http.StatusBadGateway,
			Code:       "ECONNRESET",
			Err:        err,
		}
	}

	return &Error{
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
