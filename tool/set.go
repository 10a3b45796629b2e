package tool

import (
	"fmt"
	"sync"
)

// Set holds the tools available to a single session. Tools are kept in
// registration order so the schema list sent to the model is stable
// across turns.
type Set struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewSet creates a Set containing the given tools. Duplicate names panic
// because a fixed bootstrap set is assembled once at construction.
func NewSet(tools ...Tool) *Set {
	s := &Set{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := s.Add(t); err != nil {
			panic(err)
		}
	}
	return s
}

// Add registers a tool. It fails if a tool with the same name is already
// present.
func (s *Set) Add(t Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := t.Name()
	if _, ok := s.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	s.tools[name] = t
	s.order = append(s.order, name)
	return nil
}

// Has reports whether a tool with the given name is registered.
func (s *Set) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tools[name]
	return ok
}

// Get returns the tool with the given name.
func (s *Set) Get(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (s *Set) List() []Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name])
	}
	return out
}

// Names returns all tool names in registration order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of registered tools.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
