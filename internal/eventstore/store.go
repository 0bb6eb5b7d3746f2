// Package eventstore defines the append-only per-stream event log used for
// HTTP session resumption, plus reference adapters.
package eventstore

import (
	"context"
	"time"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
)

// Record is one stored outbound frame.
type Record struct {
	EventID   string
	StreamID  string
	Frame     *jsonrpc.Frame
	CreatedAt time.Time
}

// Send is invoked once per replayed record, in created_at order.
type Send func(eventID string, frame *jsonrpc.Frame) error

// Store is the pluggable event-store contract. Implementations must be
// safe for concurrent StoreEvent + ReplayEventsAfter calls.
type Store interface {
	// StoreEvent appends frame to the stream identified by streamID and
	// returns the new globally-unique event id. StoreEvent must complete
	// before the corresponding response frame is handed to the transport.
	StoreEvent(ctx context.Context, streamID string, frame *jsonrpc.Frame) (eventID string, err error)

	// ReplayEventsAfter invokes send for every record in the stream that
	// owns lastEventID, strictly after that record, in created_at order.
	// It returns the owning stream id, or ok=false if lastEventID is
	// unknown to the store.
	ReplayEventsAfter(ctx context.Context, lastEventID string, send Send) (streamID string, ok bool, err error)

	// Get returns the record for id, or ok=false if it doesn't exist.
	Get(ctx context.Context, id string) (Record, bool, error)
}
