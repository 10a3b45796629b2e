// Package hooks provides lifecycle callbacks around model calls, tool
// execution, and compaction. Hooks observe the runtime; a hook error
// aborts the operation it wraps.
package hooks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tenantwise/steering/compaction"
	"github.com/tenantwise/steering/types"
)

// BeforeModelHook is called before each model generation.
type BeforeModelHook func(ctx context.Context, key types.SessionKey, events []*types.Event) error

// ToolCallHook is called after a tool executes.
type ToolCallHook func(ctx context.Context, key types.SessionKey, toolName string, input json.RawMessage, output string, err error) error

// BeforeCompactionHook is called before a session's log is compacted.
type BeforeCompactionHook func(ctx context.Context, key types.SessionKey) error

// AfterCompactionHook is called after compaction with its result.
type AfterCompactionHook func(ctx context.Context, key types.SessionKey, result *compaction.Result) error

// Registry holds all registered hooks.
type Registry struct {
	mu               sync.RWMutex
	beforeModel      []BeforeModelHook
	toolCall         []ToolCallHook
	beforeCompaction []BeforeCompactionHook
	afterCompaction  []AfterCompactionHook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnBeforeModel registers a hook called before each model generation.
func (r *Registry) OnBeforeModel(hook BeforeModelHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeModel = append(r.beforeModel, hook)
}

// OnToolCall registers a hook called after each tool execution.
func (r *Registry) OnToolCall(hook ToolCallHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolCall = append(r.toolCall, hook)
}

// OnBeforeCompaction registers a hook called before compaction.
func (r *Registry) OnBeforeCompaction(hook BeforeCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeCompaction = append(r.beforeCompaction, hook)
}

// OnAfterCompaction registers a hook called after compaction.
func (r *Registry) OnAfterCompaction(hook AfterCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCompaction = append(r.afterCompaction, hook)
}

// TriggerBeforeModel calls all registered before-model hooks.
func (r *Registry) TriggerBeforeModel(ctx context.Context, key types.SessionKey, events []*types.Event) error {
	r.mu.RLock()
	hooks := append([]BeforeModelHook(nil), r.beforeModel...)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, key, events); err != nil {
			return err
		}
	}
	return nil
}

// TriggerToolCall calls all registered tool-call hooks.
func (r *Registry) TriggerToolCall(ctx context.Context, key types.SessionKey, toolName string, input json.RawMessage, output string, toolErr error) error {
	r.mu.RLock()
	hooks := append([]ToolCallHook(nil), r.toolCall...)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, key, toolName, input, output, toolErr); err != nil {
			return err
		}
	}
	return nil
}

// TriggerBeforeCompaction calls all registered before-compaction hooks.
func (r *Registry) TriggerBeforeCompaction(ctx context.Context, key types.SessionKey) error {
	r.mu.RLock()
	hooks := append([]BeforeCompactionHook(nil), r.beforeCompaction...)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterCompaction calls all registered after-compaction hooks.
func (r *Registry) TriggerAfterCompaction(ctx context.Context, key types.SessionKey, result *compaction.Result) error {
	r.mu.RLock()
	hooks := append([]AfterCompactionHook(nil), r.afterCompaction...)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, key, result); err != nil {
			return err
		}
	}
	return nil
}
