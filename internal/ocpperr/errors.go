// Package ocpperr defines the stable error taxonomy the dispatcher, command
// service, and admin boundary all serialize against.
package ocpperr

import (
	"errors"
	"fmt"
)

// Kind is the stable error code surfaced to operators and logs.
type Kind string

const (
	ChargerNotFound     Kind = "charger_not_found"
	ChargerNotConnected Kind = "charger_not_connected"
	ProtocolViolation   Kind = "protocol_violation"
	UnknownAction       Kind = "unknown_action"
	ConcurrentTx        Kind = "concurrent_tx"
	Timeout             Kind = "timeout"
	AuthorizationFailed Kind = "authorization_failed"
	Transient           Kind = "transient"
)

// Error wraps a Kind with a human-readable message and, optionally, the
// underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given Kind around an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to Transient for errors
// that did not originate as an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Transient
}
