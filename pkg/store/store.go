package store

import (
	"strconv"
	"strings"
)

// Patch is a partial state update. It receives a shallow copy of the
// current state and modifies the fields it wants to change.
type Patch[S any] func(*S)

// Config describes a store passed to Create.
type Config[S, A any] struct {
	// InitialState is the state every new instance starts with.
	InitialState S

	// Actions builds the store's actions bound to a dispatcher.
	// It is called once per binding (instance, container props).
	Actions func(d *Dispatcher[S, A]) A

	// Name identifies the store in keys, logs, devtools and
	// Registry.Configure initial-state overrides. Optional.
	Name string
}

// Store is an immutable store descriptor. Instances are derived from it by
// a Registry.
type Store[S, A any] struct {
	id      uint64
	name    string
	key     []string
	initial S
	actions func(d *Dispatcher[S, A]) A
}

// Create returns a store descriptor from an initial state and an actions
// factory.
func Create[S, A any](cfg Config[S, A]) *Store[S, A] {
	id := nextID()
	key := make([]string, 0, 2)
	if cfg.Name != "" {
		key = append(key, cfg.Name)
	}
	key = append(key, "s"+strconv.FormatUint(id, 36))

	return &Store[S, A]{
		id:      id,
		name:    cfg.Name,
		key:     key,
		initial: cfg.InitialState,
		actions: cfg.Actions,
	}
}

// Key returns the store's key path.
func (s *Store[S, A]) Key() []string {
	out := make([]string, len(s.key))
	copy(out, s.key)
	return out
}

// Name returns the store's name, or "" if it was created without one.
func (s *Store[S, A]) Name() string {
	return s.name
}

// InitialState returns the state new instances start with, before any
// registry override.
func (s *Store[S, A]) InitialState() S {
	return s.initial
}

// instanceKey builds the registry key for this store in a scope.
func (s *Store[S, A]) instanceKey(scopeID string) string {
	return strings.Join(s.key, "__") + "@" + scopeID
}

// bind builds the store's actions for a dispatcher.
func (s *Store[S, A]) bind(d *Dispatcher[S, A]) A {
	var actions A
	if s.actions != nil {
		actions = s.actions(d)
	}
	return actions
}
