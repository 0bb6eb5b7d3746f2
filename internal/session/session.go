// Package session implements the per-connection runtime: the read loop,
// the in-flight request table, the progress-token callback map, and the
// teardown path that closes out every pending request when the
// connection dies. One Session owns exactly one transport.Connection.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/guildmcp/internal/jsonrpc"
	"github.com/MrWong99/guildmcp/internal/manifest"
	"github.com/MrWong99/guildmcp/internal/mcperr"
	"github.com/MrWong99/guildmcp/internal/middleware"
	"github.com/MrWong99/guildmcp/internal/platform"
	"github.com/MrWong99/guildmcp/internal/ratelimit"
	"github.com/MrWong99/guildmcp/internal/reqcontext"
	"github.com/MrWong99/guildmcp/internal/transport"
)

// ProgressCallback receives a ProgressNotification payload for the token
// it was registered under.
type ProgressCallback func(progress, total float64, message string)

// cancelledParams and progressParams mirror the MCP wire params shapes
// this loop needs to read back out of a notification frame.
type cancelledParams struct {
	RequestID json.RawMessage `json:"requestId"`
	Reason    string          `json:"reason,omitempty"`
}

type progressParams struct {
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

type inflightEntry struct {
	id     jsonrpc.ID
	cancel context.CancelFunc
}

// Session is one logical MCP connection: one read loop, one in-flight
// table, one progress-callback map.
type Session struct {
	ID   string
	conn transport.Connection

	chain middleware.Next

	resources reqcontext.ResourceReader
	manifests reqcontext.ManifestLookup
	platform  platform.Client

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	inFlight  map[string]*inflightEntry
	progress  map[string]ProgressCallback
	writeMu   sync.Mutex
	closed    bool
}

// Config bundles the collaborators a Session needs at construction.
type Config struct {
	ID        string
	Conn      transport.Connection
	Chain     middleware.Next
	Resources reqcontext.ResourceReader
	Manifests reqcontext.ManifestLookup
	Platform  platform.Client
	Logger    *slog.Logger
}

// New constructs a Session. The returned Session does not start reading
// until Run is called.
func New(parent context.Context, cfg Config) *Session {
	ctx, cancel := context.WithCancel(parent)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:        cfg.ID,
		conn:      cfg.Conn,
		chain:     cfg.Chain,
		resources: cfg.Resources,
		manifests: cfg.Manifests,
		platform:  cfg.Platform,
		logger:    logger.With(slog.String("session_id", cfg.ID)),
		ctx:       ctx,
		cancel:    cancel,
		inFlight:  make(map[string]*inflightEntry),
		progress:  make(map[string]ProgressCallback),
	}
}

// Run executes the read loop until the connection closes or ctx is
// cancelled. It always returns after performing teardown.
func (s *Session) Run() error {
	defer s.teardown()
	for {
		frame, err := s.conn.Read(s.ctx)
		if err != nil {
			var decodeErr *jsonrpc.DecodeError
			if errors.As(err, &decodeErr) {
				s.logger.Warn("dropping malformed frame", slog.Any("error", decodeErr.Err))
				mcpErr := mcperr.New(mcperr.InvalidParams, "malformed request frame: %v", decodeErr.Err)
				s.write(jsonrpc.NewError(decodeErr.ID, mcpErr.Code(), mcpErr.Message, mcpErr.Data))
				continue
			}
			s.logger.Debug("read loop exiting", slog.Any("error", err))
			return err
		}
		s.dispatchFrame(frame)
	}
}

func (s *Session) dispatchFrame(frame *jsonrpc.Frame) {
	switch {
	case frame.IsRequest():
		s.handleRequest(frame)
	case frame.IsNotification():
		s.handleNotification(frame)
	case frame.IsResponse():
		// guildmcp never issues server-to-client requests in this build, so
		// an inbound response frame has nothing to match; log and drop.
		s.logger.Warn("dropping unexpected response frame", slog.String("id", frame.ID.String()))
	default:
		s.logger.Warn("dropping unparseable frame")
	}
}

func (s *Session) handleRequest(frame *jsonrpc.Frame) {
	id := *frame.ID
	reqCtx, cancel := context.WithCancel(s.ctx)
	reqCtx = ratelimit.ContextWithSessionID(reqCtx, s.ID)

	s.mu.Lock()
	s.inFlight[id.String()] = &inflightEntry{id: id, cancel: cancel}
	s.mu.Unlock()

	rc := reqcontext.New(reqCtx, id, s.ID, s, s.resources, s.manifests, s.platform)
	wrapped := reqcontext.Attach(rc, rc)

	kind, key, has := manifestRefFor(frame)
	mwCtx := &middleware.Context{
		Context:      wrapped,
		Message:      frame,
		Method:       frame.Method,
		EventType:    middleware.EventRequest,
		Timestamp:    time.Now(),
		ManifestKind: kind,
		ManifestKey:  key,
		HasManifest:  has,
	}

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, id.String())
			s.mu.Unlock()
			cancel()
		}()

		result, err := s.chain(mwCtx)

		var resp *jsonrpc.Frame
		if err != nil {
			mcpErr := mcperr.Classify(err)
			resp = jsonrpc.NewError(id, mcpErr.Code(), mcpErr.Message, mcpErr.Data)
		} else {
			built, marshalErr := jsonrpc.NewResult(id, result)
			if marshalErr != nil {
				classified := mcperr.Classify(marshalErr)
				resp = jsonrpc.NewError(id, classified.Code(), classified.Message, classified.Data)
			} else {
				resp = built
			}
		}
		s.write(resp)
	}()
}

func (s *Session) handleNotification(frame *jsonrpc.Frame) {
	switch frame.Method {
	case "notifications/cancelled":
		var params cancelledParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			s.logger.Warn("malformed cancelled notification", slog.Any("error", err))
			return
		}
		var id jsonrpc.ID
		if err := json.Unmarshal(params.RequestID, &id); err != nil {
			s.logger.Warn("malformed cancelled notification requestId", slog.Any("error", err))
			return
		}
		s.mu.Lock()
		entry, ok := s.inFlight[id.String()]
		s.mu.Unlock()
		if ok {
			entry.cancel()
		}
		return

	case "notifications/progress":
		var params progressParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			s.logger.Warn("malformed progress notification", slog.Any("error", err))
			return
		}
		token := fmt.Sprint(params.ProgressToken)
		s.mu.Lock()
		cb, ok := s.progress[token]
		s.mu.Unlock()
		if ok {
			cb(params.Progress, params.Total, params.Message)
		}
		return
	}

	rc := reqcontext.New(s.ctx, jsonrpc.ID{}, s.ID, s, s.resources, s.manifests, s.platform)
	wrapped := reqcontext.Attach(rc, rc)
	mwCtx := &middleware.Context{
		Context:   wrapped,
		Message:   frame,
		Method:    frame.Method,
		EventType: middleware.EventNotification,
		Timestamp: time.Now(),
	}
	if _, err := s.chain(mwCtx); err != nil {
		s.logger.Warn("notification handler failed", slog.String("method", frame.Method), slog.Any("error", err))
	}
}

// RegisterProgress installs cb to receive ProgressNotifications for
// token. Callers must call the returned cleanup once the owning request
// completes.
func (s *Session) RegisterProgress(token string, cb ProgressCallback) (cleanup func()) {
	s.mu.Lock()
	s.progress[token] = cb
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.progress, token)
		s.mu.Unlock()
	}
}

// Notify implements reqcontext.Notifier: it writes a notification frame
// to the connection.
func (s *Session) Notify(ctx context.Context, method string, params any) error {
	frame, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("session: build notification %q: %w", method, err)
	}
	return s.writeCtx(ctx, frame)
}

func (s *Session) write(frame *jsonrpc.Frame) {
	if err := s.writeCtx(s.ctx, frame); err != nil {
		s.logger.Debug("write failed", slog.Any("error", err))
	}
}

func (s *Session) writeCtx(ctx context.Context, frame *jsonrpc.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return mcperr.New(mcperr.ConnectionClosed, "session %s is closed", s.ID)
	}
	return s.conn.Write(ctx, frame)
}

// teardown cancels every in-flight request and marks the session closed.
// Per spec §7, pending responders are owed a ConnectionClosed error;
// since the connection is already gone by the time teardown runs, this
// is delivered by cancelling their context rather than attempting a
// doomed write, and cooperative handlers observe ctx.Err() instead.
func (s *Session) teardown() {
	s.mu.Lock()
	entries := make([]*inflightEntry, 0, len(s.inFlight))
	for _, e := range s.inFlight {
		entries = append(entries, e)
	}
	s.inFlight = make(map[string]*inflightEntry)
	s.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}

	s.writeMu.Lock()
	s.closed = true
	s.writeMu.Unlock()

	s.cancel()
	_ = s.conn.Close()
}

// manifestRefFor extracts the (kind, key) a rate-limit/checks lookup
// needs for the three gated methods, leaving HasManifest false for
// everything else.
func manifestRefFor(frame *jsonrpc.Frame) (manifest.Kind, string, bool) {
	var byName struct {
		Name string `json:"name"`
	}
	var byURI struct {
		URI string `json:"uri"`
	}
	switch frame.Method {
	case "tools/call":
		if json.Unmarshal(frame.Params, &byName) == nil && byName.Name != "" {
			return manifest.Tool, byName.Name, true
		}
	case "prompts/get":
		if json.Unmarshal(frame.Params, &byName) == nil && byName.Name != "" {
			return manifest.Prompt, byName.Name, true
		}
	case "resources/read":
		if json.Unmarshal(frame.Params, &byURI) == nil && byURI.URI != "" {
			return manifest.Resource, byURI.URI, true
		}
	}
	return 0, "", false
}
