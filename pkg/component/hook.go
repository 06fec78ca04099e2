package component

import (
	"context"
	"sync"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// NewHook returns a hook yielding the whole state and bound actions of the
// instance visible from ctx.
func NewHook[S, A any](s *store.Store[S, A]) func(ctx context.Context) (S, A) {
	h := newHook(s, func(state S, _ struct{}) S { return state })
	return func(ctx context.Context) (S, A) {
		return h.use(ctx, struct{}{})
	}
}

// NewSelectorHook returns a hook yielding selector(state, arg) and bound
// actions of the instance visible from ctx.
func NewSelectorHook[S, A, Sel, Arg any](s *store.Store[S, A], selector Selector[S, Arg, Sel]) func(ctx context.Context, arg Arg) (Sel, A) {
	return newHook(s, selector).use
}

type hook[S, A, Sel, Arg any] struct {
	store    *store.Store[S, A]
	selector Selector[S, Arg, Sel]

	mu   sync.Mutex
	subs map[hookKey]*hookSub[S, Sel, Arg]
}

// hookKey identifies one listener's subscription to one instance.
type hookKey struct {
	state    string
	listener uint64
}

func newHook[S, A, Sel, Arg any](s *store.Store[S, A], selector Selector[S, Arg, Sel]) *hook[S, A, Sel, Arg] {
	return &hook[S, A, Sel, Arg]{
		store:    s,
		selector: selector,
		subs:     make(map[hookKey]*hookSub[S, Sel, Arg]),
	}
}

func (h *hook[S, A, Sel, Arg]) use(ctx context.Context, arg Arg) (Sel, A) {
	inst, actions := resolve(ctx, h.store)
	selected := h.selector(inst.State().GetState(), arg)

	if l := ListenerFrom(ctx); l != nil {
		h.track(ctx, inst.State(), l, arg, selected)
	}
	return selected, actions
}

// track subscribes l to changes of the selected value. Repeated calls with
// the same listener update the argument instead of subscribing again.
func (h *hook[S, A, Sel, Arg]) track(ctx context.Context, state *store.State[S], l store.Listener, arg Arg, selected Sel) {
	key := hookKey{state: state.ID(), listener: l.ID()}

	h.mu.Lock()
	if sub, ok := h.subs[key]; ok {
		h.mu.Unlock()
		sub.reset(arg, selected)
		return
	}
	sub := &hookSub[S, Sel, Arg]{
		ctx:      ctx,
		id:       store.NewListenerID(),
		state:    state,
		selector: h.selector,
		listener: l,
		arg:      arg,
		selected: selected,
	}
	h.subs[key] = sub
	h.mu.Unlock()

	sub.unsubscribe = state.Watch(sub)
	context.AfterFunc(ctx, func() {
		h.mu.Lock()
		if h.subs[key] == sub {
			delete(h.subs, key)
		}
		h.mu.Unlock()
		sub.unsubscribe()
		collectScope(sub.state)
	})
}

// hookSub forwards changes of one selection to a listener. It is a
// store.Relay, so a listener used by several hooks is marked dirty once per
// notification round.
type hookSub[S, Sel, Arg any] struct {
	ctx         context.Context
	id          uint64
	state       *store.State[S]
	selector    Selector[S, Arg, Sel]
	listener    store.Listener
	unsubscribe func()

	mu       sync.Mutex
	arg      Arg
	selected Sel
}

func (s *hookSub[S, Sel, Arg]) ID() uint64 {
	return s.id
}

func (s *hookSub[S, Sel, Arg]) Target() store.Listener {
	return s.listener
}

// Relay reselects and reports whether the selection changed. A hook whose
// render context ended reports false.
func (s *hookSub[S, Sel, Arg]) Relay() bool {
	if s.ctx.Err() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.selector(s.state.GetState(), s.arg)
	changed := !store.Equal(s.selected, next)
	s.selected = next
	return changed
}

func (s *hookSub[S, Sel, Arg]) MarkDirty() {
	if s.Relay() {
		s.listener.MarkDirty()
	}
}

func (s *hookSub[S, Sel, Arg]) reset(arg Arg, selected Sel) {
	s.mu.Lock()
	s.arg = arg
	s.selected = selected
	s.mu.Unlock()
}
