// Package syncerr defines the error kinds shared by the remote store client,
// the local clipboard adapters and the sync engine.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure.
type Kind string

const (
	// KindNotConfigured means no remote server URL is set.
	KindNotConfigured Kind = "not_configured"
	// KindTransport covers network unreachable, timeouts and DNS failures.
	KindTransport Kind = "transport"
	// KindProtocol covers unexpected status codes and malformed payloads.
	KindProtocol Kind = "protocol"
	// KindAccessDenied means the local clipboard refused access.
	KindAccessDenied Kind = "access_denied"
	// KindUnavailable means the local clipboard could not be opened or read.
	KindUnavailable Kind = "unavailable"
)

// ErrNotConfigured is the cause attached to KindNotConfigured errors.
var ErrNotConfigured = errors.New("no server URL set")

// Error is a classified failure of a single operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an *Error for op with the given kind and cause.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotConfigured returns the fail-fast error used when no URL is set.
func NotConfigured(op string) error {
	return New(KindNotConfigured, op, ErrNotConfigured)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotConfigured(err error) bool { return Is(err, KindNotConfigured) }
func IsTransport(err error) bool     { return Is(err, KindTransport) }
func IsProtocol(err error) bool      { return Is(err, KindProtocol) }
func IsAccessDenied(err error) bool  { return Is(err, KindAccessDenied) }
func IsUnavailable(err error) bool   { return Is(err, KindUnavailable) }
