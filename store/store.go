// Package store defines the persistence contract for session event logs
// and state, keyed by session identity.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tenantwise/steering/types"
)

// ErrSessionNotFound is returned by Get and Delete when no record exists
// for the given key.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned by Create when a record already exists for
// the given key.
var ErrSessionExists = errors.New("session already exists")

// DefaultTitle seeds the state map of newly created sessions.
const DefaultTitle = "New conversation"

// Summary is a lightweight session listing entry, without events.
type Summary struct {
	Key        types.SessionKey `json:"key"`
	Title      string           `json:"title"`
	EventCount int              `json:"event_count"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Store persists sessions. Implementations are safe for concurrent use;
// operations for the same key are serialized, operations for different
// keys do not block each other.
//
// Implementations MUST document whether Get returns a live reference or an
// independent copy of the underlying record. When Get returns a copy, any
// in-place mutation of the returned session is invisible to canonical
// storage until Save is called. Callers performing read-modify-write
// sequences (compaction does) must therefore call Save unconditionally
// after mutating; in-place mutation is never assumed durable.
type Store interface {
	// Get returns the session for key, or ErrSessionNotFound.
	Get(ctx context.Context, key types.SessionKey) (*types.Session, error)

	// Create creates a fresh session record with a default title, or
	// returns ErrSessionExists.
	Create(ctx context.Context, key types.SessionKey) (*types.Session, error)

	// Save replaces the full event list and state blob for the session's
	// key, creating the record if it does not exist.
	Save(ctx context.Context, sess *types.Session) error

	// Delete removes the record for key, or returns ErrSessionNotFound.
	Delete(ctx context.Context, key types.SessionKey) error

	// List returns summaries for all sessions of an application, optionally
	// filtered by user. Pass userID == "" for all users.
	List(ctx context.Context, app, userID string) ([]Summary, error)
}
