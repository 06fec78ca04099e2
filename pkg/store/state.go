package store

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/sweetstate/internal/errors"
)

// subscription is one listener registered on a State. key identifies the
// listener for batch deduplication; id identifies the registration.
type subscription struct {
	id    uint64
	key   uint64
	fn    func()
	relay Relay
}

// State is the live state of one store in one scope.
type State[S any] struct {
	id      string
	key     []string
	name    string
	scopeID string

	// mu protects value and version.
	mu      sync.RWMutex
	value   S
	version uint64

	// qmu protects queue and draining.
	qmu      sync.Mutex
	queue    []Patch[S]
	draining bool

	// subMu protects subs.
	subMu sync.Mutex
	subs  []subscription

	registry *Registry
	mutate   MutatorFunc
	logger   *slog.Logger

	// chain is built on first use so middleware factories never run under
	// the registry lock.
	mws       []Middleware
	chain     Next
	chainOnce sync.Once
}

// newState builds a state; r.mu must be held.
func newState[S any](r *Registry, id string, key []string, name, scopeID string, initial S) *State[S] {
	s := &State[S]{
		id:       id,
		key:      key,
		name:     name,
		scopeID:  scopeID,
		value:    initial,
		registry: r,
		mutate:   Defaults.Mutator,
		logger:   r.logger.With("store", id),
		mws:      r.middlewareChainLocked(),
	}
	return s
}

// GetState returns a snapshot of the current state.
func (s *State[S]) GetState() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// SetState applies patch through the middleware chain.
// A nil patch is ignored.
func (s *State[S]) SetState(patch Patch[S]) {
	s.apply("", patch)
}

// Mutator applies patch directly, skipping middleware. Listeners are
// notified if the state changed.
//
// Patches run without any lock held, so a patch may read the state or
// dispatch further updates. An update issued while another update of the
// same state is being applied is queued and applied, in order, by the
// goroutine already applying updates.
func (s *State[S]) Mutator(patch Patch[S]) {
	if patch == nil {
		return
	}

	s.qmu.Lock()
	s.queue = append(s.queue, patch)
	if s.draining {
		s.qmu.Unlock()
		return
	}
	s.draining = true
	s.qmu.Unlock()

	changed := false
	defer func() {
		s.qmu.Lock()
		s.draining = false
		s.qmu.Unlock()
		if changed {
			s.notifySubscribers()
		}
	}()

	for {
		s.qmu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.qmu.Unlock()
			return
		}
		p := s.queue[0]
		s.queue = s.queue[1:]
		s.qmu.Unlock()

		if s.commit(p) {
			changed = true
		}
	}
}

// commit computes the successor of the current state and stores it.
// Only the draining goroutine calls commit, so value cannot change between
// the read and the swap.
func (s *State[S]) commit(patch Patch[S]) bool {
	prev := s.GetState()
	next := s.next(prev, patch)
	if Equal(prev, next) {
		return false
	}

	s.mu.Lock()
	s.value = next
	s.version++
	s.mu.Unlock()
	return true
}

// Subscribe registers listener to run after every change. The returned
// function removes it; calling it more than once is harmless.
func (s *State[S]) Subscribe(listener func()) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}
	id := nextID()
	return s.add(subscription{id: id, key: id, fn: listener})
}

// Watch subscribes a Listener. Within a batch, a listener watching several
// changed states is marked dirty once. A Relay is always run; its target is
// marked at most once per round.
func (s *State[S]) Watch(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	sub := subscription{id: nextID(), key: l.ID(), fn: l.MarkDirty}
	if relay, ok := l.(Relay); ok {
		sub.relay = relay
	}
	return s.add(sub)
}

func (s *State[S]) add(sub subscription) func() {
	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(sub.id) })
	}
}

// ID returns the registry key of this state.
func (s *State[S]) ID() string { return s.id }

// Key returns the key path of the store.
func (s *State[S]) Key() []string {
	out := make([]string, len(s.key))
	copy(out, s.key)
	return out
}

// Name returns the store name.
func (s *State[S]) Name() string { return s.name }

// ScopeID returns the scope this state belongs to.
func (s *State[S]) ScopeID() string { return s.scopeID }

// Snapshot returns the current state as an untyped value.
func (s *State[S]) Snapshot() any { return s.GetState() }

// Version returns a counter incremented on every change.
func (s *State[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Listeners returns the number of subscribed listeners.
func (s *State[S]) Listeners() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *State[S]) apply(action string, patch Patch[S]) {
	if patch == nil {
		return
	}
	s.chainOnce.Do(func() {
		s.chain = Chain(s, s.terminal, s.mws...)
	})
	s.chain(Update{Action: action, Patch: patch})
}

// terminal is the innermost link of the middleware chain.
func (s *State[S]) terminal(u Update) any {
	patch, ok := u.Patch.(Patch[S])
	if !ok {
		err := errors.New("S103")
		s.logger.Warn(err.Message, "action", u.Action, "error", err)
		return nil
	}
	s.Mutator(patch)
	return nil
}

// next computes the successor state. The mutator receives a pointer to the
// previous state and must return a pointer to the new one.
func (s *State[S]) next(prev S, patch Patch[S]) S {
	if s.mutate == nil {
		next := prev
		patch(&next)
		return next
	}
	out := s.mutate(&prev, func(draft any) { patch(draft.(*S)) })
	if p, ok := out.(*S); ok && p != nil {
		return *p
	}
	return prev
}

func (s *State[S]) unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, existing := range s.subs {
		if existing.id == id {
			// Keep order; listeners are notified in subscription order.
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// notifySubscribers copies the subscriber list and notifies it, or queues
// it when the registry is batching.
func (s *State[S]) notifySubscribers() {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	s.registry.notify(subs)
}
