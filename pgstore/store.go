// Package pgstore implements the event store on PostgreSQL with pgx.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

// querier is a common interface for pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store implements store.Store on PostgreSQL.
//
// Get reconstructs a session from rows, so the returned record is always
// an independent copy. Save replaces the full event list and state blob
// in one transaction.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store over a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key types.SessionKey) (*types.Session, error) {
	sess, err := s.getSession(ctx, s.pool, key)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, role, blocks, created_at
		FROM steering_events
		WHERE app = $1 AND user_id = $2 AND session_id = $3
		ORDER BY seq`,
		key.App, key.UserID, key.SessionID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ev        types.Event
			role      string
			blocksRaw []byte
		)
		if err := rows.Scan(&ev.ID, &role, &blocksRaw, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Role = types.Role(role)
		if err := json.Unmarshal(blocksRaw, &ev.Blocks); err != nil {
			return nil, fmt.Errorf("decoding event blocks: %w", err)
		}
		sess.Events = append(sess.Events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return sess, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, key types.SessionKey) (*types.Session, error) {
	now := time.Now()
	state := map[string]any{types.StateTitleKey: store.DefaultTitle}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO steering_sessions (app, user_id, session_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (app, user_id, session_id) DO NOTHING`,
		key.App, key.UserID, key.SessionID, stateJSON, now)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrSessionExists
	}

	return &types.Session{Key: key, State: state, CreatedAt: now, UpdatedAt: now}, nil
}

// Save implements store.Store. The session row is upserted and the whole
// event list rewritten in one transaction.
func (s *Store) Save(ctx context.Context, sess *types.Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	key := sess.Key
	if _, err := tx.Exec(ctx, `
		INSERT INTO steering_sessions (app, user_id, session_id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (app, user_id, session_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		key.App, key.UserID, key.SessionID, stateJSON, now); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM steering_events
		WHERE app = $1 AND user_id = $2 AND session_id = $3`,
		key.App, key.UserID, key.SessionID); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}

	batch := &pgx.Batch{}
	for seq, ev := range sess.Events {
		blocksJSON, err := json.Marshal(ev.Blocks)
		if err != nil {
			return fmt.Errorf("encoding event blocks: %w", err)
		}
		batch.Queue(`
			INSERT INTO steering_events (id, app, user_id, session_id, seq, role, blocks, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			ev.ID, key.App, key.UserID, key.SessionID, seq, string(ev.Role), blocksJSON, ev.CreatedAt)
	}
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("inserting event %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("closing batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete implements store.Store. Events cascade.
func (s *Store) Delete(ctx context.Context, key types.SessionKey) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM steering_sessions
		WHERE app = $1 AND user_id = $2 AND session_id = $3`,
		key.App, key.UserID, key.SessionID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, app, userID string) ([]store.Summary, error) {
	query := `
		SELECT s.app, s.user_id, s.session_id, s.state, s.created_at, s.updated_at,
		       count(e.seq)
		FROM steering_sessions s
		LEFT JOIN steering_events e
		    ON e.app = s.app AND e.user_id = s.user_id AND e.session_id = s.session_id
		WHERE s.app = $1`
	args := []any{app}
	if userID != "" {
		query += ` AND s.user_id = $2`
		args = append(args, userID)
	}
	query += `
		GROUP BY s.app, s.user_id, s.session_id
		ORDER BY s.updated_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var summaries []store.Summary
	for rows.Next() {
		var (
			sum      store.Summary
			stateRaw []byte
		)
		if err := rows.Scan(&sum.Key.App, &sum.Key.UserID, &sum.Key.SessionID,
			&stateRaw, &sum.CreatedAt, &sum.UpdatedAt, &sum.EventCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		var state map[string]any
		if err := json.Unmarshal(stateRaw, &state); err == nil {
			sum.Title, _ = state[types.StateTitleKey].(string)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	return summaries, nil
}

func (s *Store) getSession(ctx context.Context, q querier, key types.SessionKey) (*types.Session, error) {
	sess := &types.Session{Key: key}
	var stateRaw []byte
	err := q.QueryRow(ctx, `
		SELECT state, created_at, updated_at
		FROM steering_sessions
		WHERE app = $1 AND user_id = $2 AND session_id = $3`,
		key.App, key.UserID, key.SessionID).
		Scan(&stateRaw, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if err := json.Unmarshal(stateRaw, &sess.State); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return sess, nil
}
