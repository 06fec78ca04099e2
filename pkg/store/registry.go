package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/vango-dev/sweetstate/internal/errors"
)

// GlobalScope is the scope id of app-wide instances.
const GlobalScope = "__global__"

// EventType is the kind of registry lifecycle event.
type EventType int

const (
	// EventCreated is emitted after an instance is added to the registry.
	EventCreated EventType = iota
	// EventDeleted is emitted after an instance is removed from the registry.
	EventDeleted
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event describes a registry lifecycle change.
type Event struct {
	Type  EventType
	State Inspector
}

// Options configure a Registry. Zero fields leave the current setting
// unchanged.
type Options struct {
	// InitialStates override the initial state of named stores. Values may
	// be the store's state type, a pointer to it, or raw JSON
	// (json.RawMessage or []byte) decoded into the state type.
	InitialStates map[string]any

	// Middlewares run after Defaults.Middlewares, outermost first.
	Middlewares []Middleware

	// Logger receives registry diagnostics.
	Logger *slog.Logger
}

// entry is a registered instance of any store type.
type entry interface {
	inspector() Inspector
}

// Registry maps (store, scope) pairs to live instances.
type Registry struct {
	mu            sync.RWMutex
	stores        map[string]entry
	initialStates map[string]any
	middlewares   []Middleware
	devtools      Middleware
	observers     []observer
	logger        *slog.Logger

	batch batcher
}

type observer struct {
	id uint64
	fn func(Event)
}

// DefaultRegistry is the process-wide registry used when none is given.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores:        make(map[string]entry),
		initialStates: make(map[string]any),
		logger:        slog.Default().With("component", "registry"),
	}
}

// Configure updates the registry settings. Settings apply to instances
// created afterwards.
func (r *Registry) Configure(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.InitialStates != nil {
		states := make(map[string]any, len(opts.InitialStates))
		for name, v := range opts.InitialStates {
			states[name] = v
		}
		r.initialStates = states
	}
	if opts.Middlewares != nil {
		r.middlewares = append([]Middleware(nil), opts.Middlewares...)
	}
	if opts.Logger != nil {
		r.logger = opts.Logger.With("component", "registry")
	}
}

// SetDevtools installs the devtools middleware. It only runs while
// Defaults.Devtools is true when an instance is created.
func (r *Registry) SetDevtools(mw Middleware) {
	r.mu.Lock()
	r.devtools = mw
	r.mu.Unlock()
}

// OnChange registers fn to receive lifecycle events. The returned function
// removes it.
func (r *Registry) OnChange(fn func(Event)) (remove func()) {
	id := nextID()
	r.mu.Lock()
	r.observers = append(r.observers, observer{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, o := range r.observers {
			if o.id == id {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Stores returns every live instance, sorted by id.
func (r *Registry) Stores() []Inspector {
	r.mu.RLock()
	out := make([]Inspector, 0, len(r.stores))
	for _, e := range r.stores {
		out = append(out, e.inspector())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Lookup returns the live instance registered under id.
func (r *Registry) Lookup(id string) (Inspector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.stores[id]
	if !ok {
		return nil, false
	}
	return e.inspector(), true
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// InitStore creates a new instance of store in scopeID, replacing any
// existing one.
func InitStore[S, A any](r *Registry, s *Store[S, A], scopeID string) *Instance[S, A] {
	scopeID = normalizeScope(scopeID)
	key := s.instanceKey(scopeID)

	r.mu.Lock()
	inst := newInstance(r, s, key, scopeID)
	old, replaced := r.stores[key]
	r.stores[key] = inst
	observers := r.observersLocked()
	r.mu.Unlock()

	if replaced {
		emit(observers, Event{Type: EventDeleted, State: old.inspector()})
	}
	emit(observers, Event{Type: EventCreated, State: inst.state})
	return inst
}

// GetStore returns the instance of store in scopeID, creating it if needed.
func GetStore[S, A any](r *Registry, s *Store[S, A], scopeID string) *Instance[S, A] {
	inst, _ := LoadOrInit(r, s, scopeID)
	return inst
}

// LoadOrInit is GetStore that also reports whether the instance was created
// by this call.
func LoadOrInit[S, A any](r *Registry, s *Store[S, A], scopeID string) (*Instance[S, A], bool) {
	scopeID = normalizeScope(scopeID)
	key := s.instanceKey(scopeID)

	r.mu.RLock()
	e, ok := r.stores[key]
	r.mu.RUnlock()
	if ok {
		return e.(*Instance[S, A]), false
	}

	r.mu.Lock()
	if e, ok := r.stores[key]; ok {
		r.mu.Unlock()
		return e.(*Instance[S, A]), false
	}
	inst := newInstance(r, s, key, scopeID)
	r.stores[key] = inst
	observers := r.observersLocked()
	r.mu.Unlock()

	emit(observers, Event{Type: EventCreated, State: inst.state})
	return inst, true
}

// DeleteStore removes the instance of store in scopeID. Deleting a missing
// instance is a no-op. Holders of the removed instance keep a working but
// detached state.
func DeleteStore[S, A any](r *Registry, s *Store[S, A], scopeID string) {
	key := s.instanceKey(normalizeScope(scopeID))

	r.mu.Lock()
	e, ok := r.stores[key]
	if ok {
		delete(r.stores, key)
	}
	observers := r.observersLocked()
	r.mu.Unlock()

	if ok {
		emit(observers, Event{Type: EventDeleted, State: e.inspector()})
	}
}

// DeleteInstance removes inst if it is still the instance registered under
// its id, and reports whether it did.
func DeleteInstance[S, A any](r *Registry, inst *Instance[S, A]) bool {
	key := inst.state.ID()

	r.mu.Lock()
	e, ok := r.stores[key]
	ok = ok && e == entry(inst)
	if ok {
		delete(r.stores, key)
	}
	observers := r.observersLocked()
	r.mu.Unlock()

	if ok {
		emit(observers, Event{Type: EventDeleted, State: inst.state})
	}
	return ok
}

// newInstance builds an instance; r.mu must be held.
func newInstance[S, A any](r *Registry, s *Store[S, A], key, scopeID string) *Instance[S, A] {
	state := newState(r, key, s.Key(), s.name, scopeID, initialStateLocked(r, s))
	inst := &Instance[S, A]{store: s, state: state}
	inst.actions = inst.Bind(nil)
	return inst
}

// initialStateLocked resolves the initial state for s, honouring
// configured overrides; r.mu must be held.
func initialStateLocked[S, A any](r *Registry, s *Store[S, A]) S {
	if s.name == "" {
		return s.initial
	}
	override, ok := r.initialStates[s.name]
	if !ok {
		return s.initial
	}

	switch v := override.(type) {
	case S:
		return v
	case *S:
		if v != nil {
			return *v
		}
	case json.RawMessage:
		return decodeInitialState(r, s, v)
	case []byte:
		return decodeInitialState(r, s, v)
	}

	err := errors.New("S101")
	r.logger.Warn(err.Message, "store", s.name, "error", err)
	return s.initial
}

func decodeInitialState[S, A any](r *Registry, s *Store[S, A], data []byte) S {
	// Start from the descriptor's state so fields missing from the JSON
	// keep their defaults.
	state := s.initial
	if err := json.Unmarshal(data, &state); err != nil {
		e := errors.New("S102").Wrap(err)
		r.logger.Warn(e.Message, "store", s.name, "error", e)
		return s.initial
	}
	return state
}

// middlewareChainLocked returns the middleware for a new state; r.mu must
// be held.
func (r *Registry) middlewareChainLocked() []Middleware {
	mws := make([]Middleware, 0, len(Defaults.Middlewares)+len(r.middlewares)+1)
	mws = append(mws, Defaults.Middlewares...)
	mws = append(mws, r.middlewares...)
	if Defaults.Devtools && r.devtools != nil {
		mws = append(mws, r.devtools)
	}
	return mws
}

// observersLocked copies the observer list; r.mu must be held.
func (r *Registry) observersLocked() []observer {
	out := make([]observer, len(r.observers))
	copy(out, r.observers)
	return out
}

func emit(observers []observer, ev Event) {
	for _, o := range observers {
		o.fn(ev)
	}
}

func normalizeScope(scopeID string) string {
	if scopeID == "" {
		return GlobalScope
	}
	return scopeID
}
