// Package mcperr defines the typed MCP error taxonomy and the protocol
// codes that accompany each kind. Every failure that crosses a JSON-RPC
// boundary in guildmcp is, or is converted into, an *mcperr.Error.
package mcperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Kind identifies one entry in the MCP error taxonomy.
type Kind int

const (
	Parse Kind = iota
	InvalidRequest
	MethodNotFound
	InvalidParams
	Internal
	ResourceNotFound
	ResourceReadError
	PromptNotFound
	PromptRenderError
	Disabled
	RateLimitExceeded
	PermissionDenied
	CheckFailure
	ConnectionClosed
)

// Code returns the JSON-RPC / MCP wire code for k.
func (k Kind) Code() int {
	switch k {
	case Parse:
		return -32700
	case InvalidRequest:
		return -32600
	case MethodNotFound:
		return -32601
	case InvalidParams:
		return -32602
	case Internal:
		return -32603
	case ResourceNotFound:
		return -32001
	case ResourceReadError:
		return -32002
	case PromptNotFound:
		return -32003
	case PromptRenderError:
		return -32004
	case Disabled:
		return -32005
	case RateLimitExceeded:
		return -32006
	case PermissionDenied:
		return -32007
	case CheckFailure:
		return -32008
	case ConnectionClosed:
		return -32000
	default:
		return -32603
	}
}

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse_error"
	case InvalidRequest:
		return "invalid_request"
	case MethodNotFound:
		return "method_not_found"
	case InvalidParams:
		return "invalid_params"
	case Internal:
		return "internal_error"
	case ResourceNotFound:
		return "resource_not_found"
	case ResourceReadError:
		return "resource_read_error"
	case PromptNotFound:
		return "prompt_not_found"
	case PromptRenderError:
		return "prompt_render_error"
	case Disabled:
		return "disabled"
	case RateLimitExceeded:
		return "rate_limit_exceeded"
	case PermissionDenied:
		return "permission_denied"
	case CheckFailure:
		return "check_failure"
	case ConnectionClosed:
		return "connection_closed"
	default:
		return "unknown"
	}
}

// Error is the typed error carried across the middleware pipeline and
// serialized into JSON-RPC error frames.
type Error struct {
	Kind    Kind
	Message string
	Data    any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mcperr: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("mcperr: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Code returns the JSON-RPC wire code for e.
func (e *Error) Code() int { return e.Kind.Code() }

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind, recording cause as the
// underlying error for %w-style unwrapping.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithData attaches structured data (e.g. rate-limit stats) to e and
// returns e for chaining.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

// As reports whether err is, or wraps, an *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Classify maps an arbitrary Go error into the taxonomy per the recovery
// policy in spec §7: JSON/validation errors become Parse, missing
// files/keys become ResourceNotFound, I/O failures become
// ResourceReadError, permission failures become PermissionDenied,
// assertion-style failures become CheckFailure, everything else is
// Internal. An error that is already an *Error passes through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}

	var syntaxErr *json.SyntaxError
	var unmarshalErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &unmarshalErr) {
		return Wrap(Parse, err, "malformed JSON payload")
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(err, fs.ErrNotExist) {
			return Wrap(ResourceNotFound, err, "resource not found")
		}
		if errors.Is(err, fs.ErrPermission) {
			return Wrap(PermissionDenied, err, "permission denied")
		}
		return Wrap(ResourceReadError, err, "error reading resource")
	}
	if errors.Is(err, os.ErrPermission) {
		return Wrap(PermissionDenied, err, "permission denied")
	}
	if errors.Is(err, os.ErrNotExist) {
		return Wrap(ResourceNotFound, err, "resource not found")
	}

	var assertErr *AssertionError
	if errors.As(err, &assertErr) {
		return Wrap(CheckFailure, err, "check failed: %s", assertErr.Predicate)
	}

	return Wrap(Internal, err, "internal error")
}

// AssertionError marks a failed check predicate so [Classify] can map it to
// [CheckFailure] instead of [Internal].
type AssertionError struct {
	Predicate string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s", e.Predicate)
}
