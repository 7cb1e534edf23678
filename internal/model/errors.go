package model

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers. Anything else stays inside its stage.
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUpstreamTransport = "UPSTREAM_TRANSPORT"
)

// Error is a machine-stable failure category plus a human-readable message.
// The two fatal request outcomes (invalid input, unreachable downstream) are
// always reported through this type; degraded extraction and registry
// fallback verdicts are not errors at all.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInput builds a fatal bad-request error.
func NewInvalidInput(message string) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: message}
}

// NewUpstreamTransport builds a fatal downstream-invocation error.
func NewUpstreamTransport(message string) *Error {
	return &Error{Code: ErrCodeUpstreamTransport, Message: message}
}

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
