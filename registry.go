package steering

import (
	"fmt"
	"sync"

	"github.com/tenantwise/steering/compaction"
	"github.com/tenantwise/steering/hooks"
	"github.com/tenantwise/steering/skill"
	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

// Registry caches one Session per identity for the process lifetime.
// Sessions are rebuilt only after an explicit Remove.
type Registry struct {
	cfg    Config
	store  store.Store
	model  ModelClient
	engine *compaction.Engine
	skills *skill.Manager
	hooks  *hooks.Registry

	mu       sync.Mutex
	sessions map[types.SessionKey]*Session
}

// NewRegistry wires the runtime. The store, model client, and summarizer
// are required; a nil skill manager or hook registry gets an empty one.
func NewRegistry(cfg Config, st store.Store, model ModelClient, summarizer compaction.Summarizer, skills *skill.Manager, hk *hooks.Registry) (*Registry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if st == nil || model == nil || summarizer == nil {
		return nil, fmt.Errorf("%w: store, model client, and summarizer are required", ErrInvalidConfig)
	}
	if skills == nil {
		skills = skill.NewManager()
	}
	if hk == nil {
		hk = hooks.NewRegistry()
	}

	engine, err := compaction.NewEngine(summarizer, st, cfg.Thresholds, cfg.Logger)
	if err != nil {
		return nil, err
	}

	return &Registry{
		cfg:      cfg,
		store:    st,
		model:    model,
		engine:   engine,
		skills:   skills,
		hooks:    hk,
		sessions: make(map[types.SessionKey]*Session),
	}, nil
}

// Hooks returns the registry's hook registry.
func (r *Registry) Hooks() *hooks.Registry { return r.hooks }

// Store returns the shared event store.
func (r *Registry) Store() store.Store { return r.store }

// GetOrCreate returns the cached session for the identity, building one
// if none exists. Construction only assembles the tool set and
// instruction text; the persisted record is created lazily on first use.
func (r *Registry) GetOrCreate(key types.SessionKey) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s
	}
	s := newSession(key, r)
	r.sessions[key] = s
	return s
}

// Get returns the cached session for the identity without creating one.
// Used by operations, such as cancellation, that must not silently
// create new state.
func (r *Registry) Get(key types.SessionKey) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Remove evicts the cached session for the identity. The persisted
// record is untouched.
func (r *Registry) Remove(key types.SessionKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// Cancel signals the identity's interrupt channel. It reports whether a
// cached session existed; with none the call is a no-op.
func (r *Registry) Cancel(key types.SessionKey) bool {
	s, ok := r.Get(key)
	if !ok {
		return false
	}
	s.Interrupt()
	return true
}
