package forward

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/golang/gddo/httputil/header"
)

// hopByHopHeaders are scoped to a single transport connection and are never
// forwarded in either direction (RFC 7230 §6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Transfer-Encoding",
	"TE",
	"Upgrade",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Trailer",
	"HTTP2-Settings",
}

// forwardedForPattern extracts the for= tokens of an inbound Forwarded header
// so they can be re-appended to the value synthesized for the upstream.
var forwardedForPattern = regexp.MustCompile(`(?i)for=\s*([^\s;,]+)`)

// stripHopByHop removes every hop-by-hop header from headers, including any
// additional header named by the Connection header's token list.
func stripHopByHop(headers http.Header) {
	for _, name := range header.ParseList(headers, "Connection") {
		switch strings.ToLower(name) {
		case "connection", "keep-alive":
		default:
			headers.Del(name)
		}
	}

	for _, name := range hopByHopHeaders {
		headers.Del(name)
	}
}

// buildUpstreamHeaders produces the header set to send upstream for an
// inbound request: the inbound headers minus HTTP/2 pseudo-headers and
// hop-by-hop control, plus a freshly synthesized Forwarded header.
//
// localAddr and remoteAddr are the proxy-side and client-side addresses of
// the inbound connection, and secure reports whether it carried TLS.
func buildUpstreamHeaders(
	request *http.Request,
	localAddr string,
	remoteAddr string,
	secure bool,
) http.Header {
	headers := http.Header{}
	for name, values := range request.Header {
		if strings.HasPrefix(name, ":") {
			continue
		}
		headers[name] = append([]string(nil), values...)
	}

	stripHopByHop(headers)
	headers.Set("Forwarded", buildForwarded(request, localAddr, remoteAddr, secure))

	return headers
}

// buildForwarded synthesizes an RFC 7239 Forwarded value from scratch. The
// inbound header is consulted only to extract existing for= tokens, which
// are appended in their original order.
func buildForwarded(
	request *http.Request,
	localAddr string,
	remoteAddr string,
	secure bool,
) string {
	var value strings.Builder

	fmt.Fprintf(&value, "by=%s; for=%s", bareAddress(localAddr), bareAddress(remoteAddr))

	for _, inbound := range request.Header.Values("Forwarded") {
		for _, match := range forwardedForPattern.FindAllStringSubmatch(inbound, -1) {
			fmt.Fprintf(&value, "; for=%s", match[1])
		}
	}

	// request.Host carries the Host header, or the :authority pseudo-header
	// for requests that arrived over HTTP/2.
	if request.Host != "" {
		fmt.Fprintf(&value, "; host=%s", request.Host)
	}

	if secure {
		value.WriteString("; proto=https")
	} else {
		value.WriteString("; proto=http")
	}

	return value.String()
}

// addVia appends "<httpVersion> <proxyName>" to any existing Via header, or
// sets it. It does nothing when proxyName is empty.
func addVia(headers http.Header, request *http.Request, proxyName string) {
	if proxyName == "" {
		return
	}

	entry := fmt.Sprintf("%d.%d %s", request.ProtoMajor, request.ProtoMinor, proxyName)
	if existing := headers.Get("Via"); existing != "" {
		entry = existing + ", " + entry
	}

	headers.Set("Via", entry)
}

// viaContains reports whether any entry of the request's Via chain already
// names this proxy, indicating a forwarding loop.
func viaContains(headers http.Header, proxyName string) bool {
	if proxyName == "" {
		return false
	}

	suffix := strings.ToLower(proxyName)
	for _, entry := range header.ParseList(headers, "Via") {
		if strings.HasSuffix(strings.ToLower(entry), suffix) {
			return true
		}
	}

	return false
}

// bareAddress strips the port from a host:port address, leaving bare hosts
// untouched.
func bareAddress(address string) string {
	if host, _, err := net.SplitHostPort(address); err == nil {
		return host
	}

	return address
}
