// Package memstore implements [eventstore.Store] as an in-process,
// in-memory log. It is the reference adapter for tests and single-process
// deployments; see sqlstore for a durable alternative.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/guildmcp/internal/eventstore"
	"github.com/MrWong99/guildmcp/internal/jsonrpc"
)

// Store is an in-memory [eventstore.Store]. The zero value is not usable;
// construct with [New].
type Store struct {
	mu      sync.Mutex
	streams map[string][]eventstore.Record // ordered by created_at, append-only
	byID    map[string]int                 // event id -> index within its stream's slice
	idToStream map[string]string
}

// New returns a ready-to-use in-memory event store.
func New() *Store {
	return &Store{
		streams:    make(map[string][]eventstore.Record),
		byID:       make(map[string]int),
		idToStream: make(map[string]string),
	}
}

func (s *Store) StoreEvent(_ context.Context, streamID string, frame *jsonrpc.Frame) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := eventstore.Record{
		EventID:   id,
		StreamID:  streamID,
		Frame:     frame,
		CreatedAt: time.Now(),
	}
	s.streams[streamID] = append(s.streams[streamID], rec)
	s.byID[id] = len(s.streams[streamID]) - 1
	s.idToStream[id] = streamID
	return id, nil
}

func (s *Store) ReplayEventsAfter(_ context.Context, lastEventID string, send eventstore.Send) (string, bool, error) {
	s.mu.Lock()
	streamID, ok := s.idToStream[lastEventID]
	if !ok {
		s.mu.Unlock()
		return "", false, nil
	}
	idx := s.byID[lastEventID]
	records := s.streams[streamID]
	tail := make([]eventstore.Record, len(records)-idx-1)
	copy(tail, records[idx+1:])
	s.mu.Unlock()

	for _, rec := range tail {
		if err := send(rec.EventID, rec.Frame); err != nil {
			return streamID, true, err
		}
	}
	return streamID, true, nil
}

func (s *Store) Get(_ context.Context, id string) (eventstore.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	streamID, ok := s.idToStream[id]
	if !ok {
		return eventstore.Record{}, false, nil
	}
	idx := s.byID[id]
	return s.streams[streamID][idx], true, nil
}
