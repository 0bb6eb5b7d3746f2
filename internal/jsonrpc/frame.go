// Package jsonrpc defines the wire frame types shared by both transports
// and the point where a decoded frame's id is validated.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

const Version = "2.0"

// ID is a JSON-RPC request identifier: a string, a number, or absent.
// A zero ID (Valid == false) denotes "no id" (a notification).
type ID struct {
	str   string
	num   int64
	isStr bool
	Valid bool
}

func NewStringID(s string) ID { return ID{str: s, isStr: true, Valid: true} }
func NewNumberID(n int64) ID  { return ID{num: n, Valid: true} }

func (id ID) String() string {
	if !id.Valid {
		return ""
	}
	if id.isStr {
		return id.str
	}
	return fmt.Sprintf("%d", id.num)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Valid {
		return []byte("null"), nil
	}
	if id.isStr {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID{num: n, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID{str: s, isStr: true, Valid: true}
		return nil
	}
	return fmt.Errorf("jsonrpc: id must be a string or number, got %s", string(data))
}

// Equal reports whether id and other denote the same request id.
func (id ID) Equal(other ID) bool {
	return id.Valid == other.Valid && id.isStr == other.isStr && id.str == other.str && id.num == other.num
}

// ErrorObject is the `error` member of a JSON-RPC error response.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Frame is the union of request, notification, response, and error frames.
// Exactly one of Method (request/notification) or Result/Error
// (response/error) is meaningful per the JSON-RPC 2.0 discriminant rules.
type Frame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// IsRequest reports whether f is a request (has a method and a valid id).
func (f *Frame) IsRequest() bool {
	return f.Method != "" && f.ID != nil && f.ID.Valid
}

// IsNotification reports whether f is a notification (has a method, no id).
func (f *Frame) IsNotification() bool {
	return f.Method != "" && (f.ID == nil || !f.ID.Valid)
}

// IsResponse reports whether f is a response or error frame.
func (f *Frame) IsResponse() bool {
	return f.Method == "" && f.ID != nil && f.ID.Valid
}

// NewRequest builds a request frame.
func NewRequest(id ID, method string, params any) (*Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: marshal params for %q: %w", method, err)
	}
	return &Frame{JSONRPC: Version, ID: &id, Method: method, Params: raw}, nil
}

// NewNotification builds a notification frame (no id).
func NewNotification(method string, params any) (*Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: marshal params for %q: %w", method, err)
	}
	return &Frame{JSONRPC: Version, Method: method, Params: raw}, nil
}

// NewResult builds a successful response frame.
func NewResult(id ID, result any) (*Frame, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: marshal result: %w", err)
	}
	return &Frame{JSONRPC: Version, ID: &id, Result: raw}, nil
}

// NewError builds an error response frame.
func NewError(id ID, code int, message string, data any) *Frame {
	return &Frame{JSONRPC: Version, ID: &id, Error: &ErrorObject{Code: code, Message: message, Data: data}}
}

// rawFrame mirrors Frame but leaves id as raw bytes, so a frame whose id
// is present but malformed (wrong type, unsupported version) can still
// be partially decoded instead of failing json.Unmarshal outright.
type rawFrame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// DecodeError reports a single frame that failed validation, together
// with whatever request id could still be recovered from it. ID.Valid
// is false when the id itself is missing or malformed, in which case a
// reply has nothing to echo and goes out with a null id, per JSON-RPC
// convention for requests whose id cannot be determined.
type DecodeError struct {
	ID  ID
	Err error
}

func (e *DecodeError) Error() string { return e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a single JSON-RPC frame from raw bytes. A syntactically
// invalid, wrong-version, or bad-id frame yields a *DecodeError rather
// than an opaque error, so a caller validating per-frame (rather than
// treating decode failure as connection death) can still reply on the
// id it recovers.
func Decode(raw []byte) (*Frame, error) {
	var rf rawFrame
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("jsonrpc: decode frame: %w", err)}
	}

	var id ID
	if len(rf.ID) > 0 && string(rf.ID) != "null" {
		if err := json.Unmarshal(rf.ID, &id); err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("jsonrpc: malformed id: %w", err)}
		}
	}

	if rf.JSONRPC != Version {
		return nil, &DecodeError{ID: id, Err: fmt.Errorf("jsonrpc: unsupported version %q", rf.JSONRPC)}
	}

	var idPtr *ID
	if id.Valid {
		idCopy := id
		idPtr = &idCopy
	}
	return &Frame{
		JSONRPC: rf.JSONRPC,
		ID:      idPtr,
		Method:  rf.Method,
		Params:  rf.Params,
		Result:  rf.Result,
		Error:   rf.Error,
	}, nil
}

// Encode serializes f as a single compact JSON line (no trailing newline).
func Encode(f *Frame) ([]byte, error) {
	if f.JSONRPC == "" {
		f.JSONRPC = Version
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: encode frame: %w", err)
	}
	return data, nil
}
