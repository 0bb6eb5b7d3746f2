// Package sqlstore implements [eventstore.Store] on top of an embedded
// SQL database (modernc.org/sqlite, pure Go, no cgo). It is the durable
// reference adapter described in spec §4.6/§6: a single file holding the
// `events` table, written through one connection so StoreEvent and
// ReplayEventsAfter never race.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MrWong99/guildmcp/internal/eventstore"
	"github.com/MrWong99/guildmcp/internal/jsonrpc"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	stream_id TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS events_stream_created_idx ON events(stream_id, created_at);
`

// Store is a SQLite-backed [eventstore.Store].
type Store struct {
	db *sql.DB
}

// Open creates or opens the event-store database file at path and ensures
// its schema exists. A single open connection is used for all writes and
// reads, as recommended for SQLite under concurrent access.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlstore: close: %w", err)
	}
	return nil
}

func (s *Store) StoreEvent(ctx context.Context, streamID string, frame *jsonrpc.Frame) (string, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return "", fmt.Errorf("sqlstore: marshal frame: %w", err)
	}

	id := uuid.NewString()
	createdAt := time.Now().UnixNano()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, stream_id, message, created_at) VALUES (?, ?, ?, ?)`,
		id, streamID, string(data), createdAt)
	if err != nil {
		return "", fmt.Errorf("sqlstore: insert event: %w", err)
	}
	return id, nil
}

func (s *Store) ReplayEventsAfter(ctx context.Context, lastEventID string, send eventstore.Send) (string, bool, error) {
	var streamID string
	var anchorCreatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT stream_id, created_at FROM events WHERE id = ?`, lastEventID,
	).Scan(&streamID, &anchorCreatedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlstore: lookup anchor %q: %w", lastEventID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message FROM events WHERE stream_id = ? AND created_at > ? ORDER BY created_at ASC`,
		streamID, anchorCreatedAt)
	if err != nil {
		return streamID, true, fmt.Errorf("sqlstore: query tail: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, message string
		if err := rows.Scan(&id, &message); err != nil {
			return streamID, true, fmt.Errorf("sqlstore: scan row: %w", err)
		}
		var frame jsonrpc.Frame
		if err := json.Unmarshal([]byte(message), &frame); err != nil {
			return streamID, true, fmt.Errorf("sqlstore: decode message %q: %w", id, err)
		}
		if err := send(id, &frame); err != nil {
			return streamID, true, err
		}
	}
	if err := rows.Err(); err != nil {
		return streamID, true, fmt.Errorf("sqlstore: iterate rows: %w", err)
	}
	return streamID, true, nil
}

func (s *Store) Get(ctx context.Context, id string) (eventstore.Record, bool, error) {
	var streamID, message string
	var createdAtNs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT stream_id, message, created_at FROM events WHERE id = ?`, id,
	).Scan(&streamID, &message, &createdAtNs)
	if err == sql.ErrNoRows {
		return eventstore.Record{}, false, nil
	}
	if err != nil {
		return eventstore.Record{}, false, fmt.Errorf("sqlstore: get %q: %w", id, err)
	}
	var frame jsonrpc.Frame
	if err := json.Unmarshal([]byte(message), &frame); err != nil {
		return eventstore.Record{}, false, fmt.Errorf("sqlstore: decode message %q: %w", id, err)
	}
	return eventstore.Record{
		EventID:   id,
		StreamID:  streamID,
		Frame:     &frame,
		CreatedAt: time.Unix(0, createdAtNs),
	}, true, nil
}
