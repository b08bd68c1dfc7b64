// Package forward implements an embeddable HTTP/1.1 reverse-proxy forwarding
// engine. It forwards a single inbound request to a configured upstream
// origin, streams the response back to the client, and preserves end-to-end
// semantics while stripping hop-by-hop control.
//
// The package deliberately owns nothing but the forwarding itself. The host
// server owns listening sockets, routing, TLS termination and logging, and
// invokes Web or WS once per inbound request.
package forward
