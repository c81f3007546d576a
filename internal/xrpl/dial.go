package xrpl

import (
	"context"
	"strings"
)

// Dial connects a query client for the endpoint, choosing the transport
// from the URL scheme: ws:// and wss:// speak the WebSocket protocol,
// anything else HTTP JSON-RPC.
func Dial(ctx context.Context, endpoint string) (Client, error) {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return NewWSClient(ctx, endpoint, nil)
	}
	return NewHTTPClient(endpoint), nil
}
