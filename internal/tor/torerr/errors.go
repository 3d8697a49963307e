// Package torerr defines the error taxonomy shared across the Tor control
// and hidden-service subsystem. Every fallible operation in internal/tor/...
// returns, or wraps, one of these kinds so a host application can branch on
// failure mode without string matching.
package torerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure, not a specific error instance.
type Kind int

const (
	// KindExecutableMissing: the Tor binary could not be located on any
	// search path.
	KindExecutableMissing Kind = iota

	// KindDataDirUnwritable: the data directory could not be created or
	// written to.
	KindDataDirUnwritable

	// KindProcessFailed: the child Tor process exited before becoming
	// Ready, or exited with a nonzero status afterward.
	KindProcessFailed

	// KindControlConnectFailed: the TCP dial to the control port failed
	// after the process reported Ready.
	KindControlConnectFailed

	// KindAuthFailed: no acceptable authentication method was offered, or
	// authentication was rejected.
	KindAuthFailed

	// KindProtocolViolation: a malformed reply, an out-of-order reply, or
	// an unexpected event payload was observed on the control connection.
	KindProtocolViolation

	// KindConnectionLost: the control socket closed mid-session.
	KindConnectionLost

	// KindServicePublishFailed: ADD_ONION was refused by Tor.
	KindServicePublishFailed

	// KindKeyLoadFailed: private_key was unreadable or malformed.
	KindKeyLoadFailed
)

// String renders the kind the way it would appear in a log line.
func (k Kind) String() string {
	switch k {
	case KindExecutableMissing:
		return "ExecutableMissing"
	case KindDataDirUnwritable:
		return "DataDirUnwritable"
	case KindProcessFailed:
		return "ProcessFailed"
	case KindControlConnectFailed:
		return "ControlConnectFailed"
	case KindAuthFailed:
		return "AuthFailed"
	case KindProtocolViolation:
		return "ProtocolViolation"
	case KindConnectionLost:
		return "ConnectionLost"
	case KindServicePublishFailed:
		return "ServicePublishFailed"
	case KindKeyLoadFailed:
		return "KeyLoadFailed"
	default:
		return "Unknown"
	}
}

// Error is a taxonomy-tagged error. It wraps an underlying cause so
// errors.Is/As and %w formatting keep working across the wrapper.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a Kind-tagged error from a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Err: errors.New(message)}
}

// Newf creates a Kind-tagged error from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error with a kind, preserving it as the cause.
// Wrapping nil returns nil.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err is a *Error of the given kind, anywhere in its
// wrap chain.
func Is(err error, kind Kind) bool {
	var te *Error
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == kind
}
