package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/guildmcp/internal/eventstore"
	"github.com/MrWong99/guildmcp/internal/jsonrpc"
)

// sseRetry is advertised to clients reconnecting a dropped GET stream.
const sseRetry = 2 * time.Second

// StreamableHTTP is a [Transport] serving the MCP streamable-HTTP wire
// format over a single endpoint: POST delivers one client message and
// waits for its reply, GET opens a long-lived SSE stream for
// server-initiated notifications and resumes a dropped stream from a
// Last-Event-ID header via [eventstore.Store.ReplayEventsAfter].
//
// Unlike [Stdio], a StreamableHTTP accepts many concurrent sessions;
// Connect blocks until the next session's first request arrives rather
// than establishing a connection eagerly.
type StreamableHTTP struct {
	store eventstore.Store

	mu       sync.Mutex
	sessions map[string]*httpConn
	pending  chan *httpConn
}

// NewStreamableHTTP returns a StreamableHTTP backed by store for
// per-session event persistence and replay.
func NewStreamableHTTP(store eventstore.Store) *StreamableHTTP {
	return &StreamableHTTP{
		store:    store,
		sessions: make(map[string]*httpConn),
		pending:  make(chan *httpConn, 16),
	}
}

// Connect blocks until an HTTP request opens a new session, then
// returns its Connection. Call it in a loop to accept every session a
// running HTTP server receives.
func (t *StreamableHTTP) Connect(ctx context.Context) (Connection, error) {
	select {
	case conn := <-t.pending:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Register adds the streamable-HTTP endpoint to mux at path.
func (t *StreamableHTTP) Register(mux *http.ServeMux, path string) {
	mux.HandleFunc("POST "+path, t.handlePost)
	mux.HandleFunc("GET "+path, t.handleGet)
	mux.HandleFunc("DELETE "+path, t.handleDelete)
}

func (t *StreamableHTTP) handlePost(w http.ResponseWriter, r *http.Request) {
	var frame jsonrpc.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		http.Error(w, "malformed json-rpc frame", http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	conn, isNew := t.sessionFor(sessionID)
	if isNew {
		select {
		case t.pending <- conn:
		case <-r.Context().Done():
			return
		}
	}

	if !frame.IsRequest() {
		conn.deliverInbound(&frame)
		w.Header().Set("Mcp-Session-Id", conn.id)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	replyCh := conn.registerWaiter(*frame.ID)
	conn.deliverInbound(&frame)

	select {
	case reply := <-replyCh:
		writeSSE(w, reply.eventID, reply.frame)
	case <-r.Context().Done():
		conn.dropWaiter(*frame.ID)
	}
}

func (t *StreamableHTTP) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	conn, ok := t.lookupSession(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "retry: %d\n\n", sseRetry.Milliseconds())
	flusher.Flush()

	if lastEventID := r.Header.Get("Last-Event-ID"); lastEventID != "" {
		_, _, err := t.store.ReplayEventsAfter(r.Context(), lastEventID, func(eventID string, frame *jsonrpc.Frame) error {
			writeSSE(w, eventID, frame)
			flusher.Flush()
			return nil
		})
		if err != nil {
			return
		}
	}

	sub, unsubscribe := conn.subscribe()
	defer unsubscribe()

	for {
		select {
		case tail := <-sub:
			writeSSE(w, tail.eventID, tail.frame)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (t *StreamableHTTP) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	t.mu.Lock()
	conn, ok := t.sessions[sessionID]
	delete(t.sessions, sessionID)
	t.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (t *StreamableHTTP) sessionFor(id string) (conn *httpConn, isNew bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id != "" {
		if existing, ok := t.sessions[id]; ok {
			return existing, false
		}
	}
	newID := id
	if newID == "" {
		newID = uuid.NewString()
	}
	conn = newHTTPConn(newID, t.store)
	t.sessions[newID] = conn
	return conn, true
}

func (t *StreamableHTTP) lookupSession(id string) (*httpConn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.sessions[id]
	return conn, ok
}

// outbound pairs a frame with the event id it was stored under, so both
// the request-waiting path and the tailing SSE path carry the id SSE
// resumption needs.
type outbound struct {
	eventID string
	frame   *jsonrpc.Frame
}

// httpConn bridges the request/response shape of HTTP to the
// bidirectional [Connection] the session runtime expects: inbound
// carries decoded POST bodies, subscribers fan out every Write call to
// whichever GET stream is currently attached, and waiters let a POST
// handler block for the one reply matching its request id instead of
// needing to tail the SSE stream itself.
type httpConn struct {
	id    string
	store eventstore.Store

	inbound chan *jsonrpc.Frame

	mu          sync.Mutex
	waiters     map[string]chan outbound
	subscribers map[chan outbound]struct{}
	closed      chan struct{}
}

func newHTTPConn(id string, store eventstore.Store) *httpConn {
	return &httpConn{
		id:          id,
		store:       store,
		inbound:     make(chan *jsonrpc.Frame, 16),
		waiters:     make(map[string]chan outbound),
		subscribers: make(map[chan outbound]struct{}),
		closed:      make(chan struct{}),
	}
}

func (c *httpConn) deliverInbound(frame *jsonrpc.Frame) {
	select {
	case c.inbound <- frame:
	case <-c.closed:
	}
}

func (c *httpConn) registerWaiter(id jsonrpc.ID) chan outbound {
	ch := make(chan outbound, 1)
	c.mu.Lock()
	c.waiters[id.String()] = ch
	c.mu.Unlock()
	return ch
}

func (c *httpConn) dropWaiter(id jsonrpc.ID) {
	c.mu.Lock()
	delete(c.waiters, id.String())
	c.mu.Unlock()
}

func (c *httpConn) subscribe() (ch chan outbound, unsubscribe func()) {
	ch = make(chan outbound, 16)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		delete(c.subscribers, ch)
		c.mu.Unlock()
	}
}

func (c *httpConn) Read(ctx context.Context) (*jsonrpc.Frame, error) {
	select {
	case frame := <-c.inbound:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, io.EOF
	}
}

// Write persists frame to the event store and delivers it either to a
// POST handler waiting on this exact request id, or to every attached
// SSE subscriber when no such waiter exists (server-initiated
// notifications, and responses to requests whose original POST already
// gave up).
func (c *httpConn) Write(ctx context.Context, frame *jsonrpc.Frame) error {
	eventID, err := c.store.StoreEvent(ctx, c.id, frame)
	if err != nil {
		return fmt.Errorf("transport: store event for session %s: %w", c.id, err)
	}
	out := outbound{eventID: eventID, frame: frame}

	if frame.ID != nil {
		c.mu.Lock()
		waiter, ok := c.waiters[frame.ID.String()]
		if ok {
			delete(c.waiters, frame.ID.String())
		}
		c.mu.Unlock()
		if ok {
			waiter <- out
			return nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subscribers {
		select {
		case sub <- out:
		default:
			// Slow subscriber: it can catch up via Last-Event-ID on
			// reconnect, so dropping here does not lose the event.
		}
	}
	return nil
}

func (c *httpConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

// writeSSE writes one SSE event frame containing the JSON-encoded
// jsonrpc.Frame. A frame that fails to marshal is dropped without being
// written or logged; frames built by jsonrpc.NewResult/NewError have
// already been marshalled once, so this is only a defensive fallback.
func writeSSE(w http.ResponseWriter, eventID string, frame *jsonrpc.Frame) {
	encoded, err := json.Marshal(frame)
	if err != nil {
		return
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "id: %s\nevent: message\ndata: %s\n\n", eventID, encoded)
	bw.Flush()
}
