// Package netx extracts network details from incoming requests.
package netx

import (
	"context"
	"net"

	"google.golang.org/grpc/peer"
)

// ClientIP returns the remote host of the gRPC peer carried by ctx, or an
// empty string when there is none.
func ClientIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	return HostOnly(p.Addr.String())
}

// HostOnly strips the port from addr. Values without a port are returned
// unchanged.
func HostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
