package steering

import (
	"errors"
	"fmt"

	"github.com/tenantwise/steering/types"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the runtime configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInterrupted is the cancellation control-flow signal. It is raised
	// by the guard at a checkpoint and caught exactly once per turn.
	ErrInterrupted = errors.New("task interrupted")

	// ErrUnknownSkill is returned when a skill identifier has no manifest
	ErrUnknownSkill = errors.New("unknown skill")

	// ErrToolNotFound is returned when the model calls a tool that is not
	// in the session's tool set
	ErrToolNotFound = errors.New("tool not found")

	// ErrTurnLimitExceeded is returned when a turn runs past the maximum
	// number of model/tool iterations
	ErrTurnLimitExceeded = errors.New("turn iteration limit exceeded")
)

// SessionError carries the failing operation and the session it belongs to.
type SessionError struct {
	Op  string
	Key types.SessionKey
	Err error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	return fmt.Sprintf("%s (session=%s): %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a SessionError
func NewSessionError(op string, key types.SessionKey, err error) *SessionError {
	return &SessionError{Op: op, Key: key, Err: err}
}
