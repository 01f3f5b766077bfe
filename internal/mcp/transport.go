package mcp

import (
	"context"
	"encoding/json"
)

// Transport is the MCP wire contract (spec.md §4.4:
// connect/disconnect/send/receive/is_connected), implemented by a stdio
// subprocess transport and an HTTP+SSE transport.
type Transport interface {
	// Connect establishes the transport connection.
	Connect(ctx context.Context) error

	// Close disconnects the transport.
	Close() error

	// Call sends a request and waits for its response.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)

	// Notify sends a notification (no response expected).
	Notify(ctx context.Context, method string, params any) error

	// Events returns a channel of server-sent notifications.
	Events() <-chan *JSONRPCNotification

	// Requests returns a channel of server-initiated requests (e.g. sampling).
	Requests() <-chan *JSONRPCRequest

	// Respond answers a server-initiated request.
	Respond(ctx context.Context, id any, result any, rpcErr *JSONRPCError) error

	// Connected reports whether the transport is currently usable.
	Connected() bool
}

// NewTransport builds the transport named by cfg.Transport.
func NewTransport(cfg *ServerConfig) Transport {
	switch cfg.Transport {
	case TransportHTTP:
		return NewHTTPTransport(cfg)
	case TransportWS:
		return NewWSTransport(cfg)
	default:
		return NewStdioTransport(cfg)
	}
}
