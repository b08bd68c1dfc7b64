package proxyprotocol

import (
	"net"

	proxyproto "github.com/pires/go-proxyproto"
)

// NewProxyAddr creates a net.Addr from the transport protocol, address and
// port conveyed by a PROXY protocol header.
func NewProxyAddr(
	proto proxyproto.AddressFamilyAndProtocol,
	addr net.IP,
	port uint16,
) net.Addr {
	network := networkName(proto)
	switch network {
	case "unix", "unixgram":
		return &net.UnixAddr{
			Net:  network,
			Name: addr.String(),
		}
	case "udp4", "udp6":
		return &net.UDPAddr{
			IP:   addr,
			Port: int(port),
		}
	default:
		return &net.TCPAddr{
			IP:   addr,
			Port: int(port),
		}
	}
}

func networkName(proto proxyproto.AddressFamilyAndProtocol) string {
	switch {
	case proto.IsIPv4() && proto.IsStream():
		return "tcp4"
	case proto.IsIPv4():
		return "udp4"
	case proto.IsIPv6() && proto.IsStream():
		return "tcp6"
	case proto.IsIPv6():
		return "udp6"
	case proto.IsUnix() && proto.IsStream():
		return "unix"
	case proto.IsUnix():
		return "unixgram"
	default:
		return "unspec"
	}
}
