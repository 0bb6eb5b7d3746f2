// Package transport defines the abstract bounded message streams that both
// the stdio and streamable-HTTP adapters implement, and that the session
// runtime consumes without knowing which concrete transport is in play.
package transport

import (
	"context"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
)

// Connection is a paired, bounded inbound/outbound JSON-RPC message stream
// for one logical session. Read and Write must be safe to call
// concurrently with each other (but each is only ever called by one
// goroutine at a time: Read from the session's read loop, Write from
// whichever request task is replying or publishing a notification).
type Connection interface {
	// Read blocks for the next inbound frame, or returns an error (io.EOF
	// on graceful close) when no more frames will arrive.
	Read(ctx context.Context) (*jsonrpc.Frame, error)

	// Write sends an outbound frame. Implementations serialize writes
	// internally so that concurrent callers never interleave bytes.
	Write(ctx context.Context, frame *jsonrpc.Frame) error

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Transport knows how to establish a Connection. Connect is called once
// per logical session.
type Transport interface {
	Connect(ctx context.Context) (Connection, error)
}
