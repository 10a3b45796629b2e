// Package memstore provides an in-memory Store for tests, examples, and
// single-process deployments without a database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

// Store is an in-memory store.Store implementation.
//
// Get returns an independent deep copy of the stored record, never a live
// reference. Mutating a session obtained from Get has no effect on the
// store until Save is called with it.
type Store struct {
	mu       sync.RWMutex
	sessions map[types.SessionKey]*types.Session
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{sessions: make(map[types.SessionKey]*types.Session)}
}

var _ store.Store = (*Store)(nil)

// Get implements store.Store. The returned session is a deep copy.
func (s *Store) Get(ctx context.Context, key types.SessionKey) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, key types.SessionKey) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; ok {
		return nil, store.ErrSessionExists
	}

	now := time.Now()
	sess := &types.Session{
		Key:       key,
		State:     map[string]any{types.StateTitleKey: store.DefaultTitle},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[key] = sess
	return sess.Clone(), nil
}

// Save implements store.Store. The stored record is a deep copy of sess,
// so later mutations of sess do not leak into the store.
func (s *Store) Save(ctx context.Context, sess *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := sess.Clone()
	stored.UpdatedAt = time.Now()
	if prev, ok := s.sessions[sess.Key]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	s.sessions[sess.Key] = stored
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, key types.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; !ok {
		return store.ErrSessionNotFound
	}
	delete(s.sessions, key)
	return nil
}

// List implements store.Store. Results are ordered by most recent update.
func (s *Store) List(ctx context.Context, app, userID string) ([]store.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summaries []store.Summary
	for key, sess := range s.sessions {
		if key.App != app {
			continue
		}
		if userID != "" && key.UserID != userID {
			continue
		}
		summaries = append(summaries, store.Summary{
			Key:        key,
			Title:      sess.Title(),
			EventCount: len(sess.Events),
			CreatedAt:  sess.CreatedAt,
			UpdatedAt:  sess.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}
