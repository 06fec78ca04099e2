package component

import (
	"context"
	"sync"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// Selector projects store state and props to the value a consumer needs.
type Selector[S, P, Out any] func(state S, props P) Out

// RenderFunc receives the selected state and bound actions.
type RenderFunc[Sel, A any] func(state Sel, actions A)

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*subscriberConfig)

type subscriberConfig struct {
	displayName string
}

// WithDisplayName sets the subscriber's display name.
func WithDisplayName(name string) SubscriberOption {
	return func(c *subscriberConfig) {
		c.displayName = name
	}
}

// Subscriber renders selected state and re-renders when it changes.
type Subscriber[S, A, Sel, P any] struct {
	store    *store.Store[S, A]
	selector Selector[S, P, Sel]
	name     string
}

// NewSubscriber creates a subscriber that renders the whole state.
func NewSubscriber[S, A any](s *store.Store[S, A], opts ...SubscriberOption) *Subscriber[S, A, S, struct{}] {
	return newSubscriber(s, func(state S, _ struct{}) S { return state }, opts)
}

// NewSelectorSubscriber creates a subscriber that renders selector(state, props).
// Children only re-render when the selected value changes.
func NewSelectorSubscriber[S, A, Sel, P any](s *store.Store[S, A], selector Selector[S, P, Sel], opts ...SubscriberOption) *Subscriber[S, A, Sel, P] {
	return newSubscriber(s, selector, opts)
}

func newSubscriber[S, A, Sel, P any](s *store.Store[S, A], selector Selector[S, P, Sel], opts []SubscriberOption) *Subscriber[S, A, Sel, P] {
	cfg := subscriberConfig{displayName: "Subscriber(" + displayStoreName(s.Name()) + ")"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Subscriber[S, A, Sel, P]{store: s, selector: selector, name: cfg.displayName}
}

// DisplayName returns the subscriber's display name.
func (sub *Subscriber[S, A, Sel, P]) DisplayName() string {
	return sub.name
}

// Render calls children with the current selection and again on every
// change of the selected value. Rendering stops on Close or when ctx is
// done.
func (sub *Subscriber[S, A, Sel, P]) Render(ctx context.Context, props P, children RenderFunc[Sel, A]) *Subscription[P] {
	inst, actions := resolve(ctx, sub.store)

	s := &subscription[S, A, Sel, P]{
		ctx:      ctx,
		state:    inst.State(),
		selector: sub.selector,
		actions:  actions,
		children: children,
		props:    props,
	}

	// Subscribe before the first selection so no update is missed.
	s.mu.Lock()
	s.unsubscribe = s.state.Subscribe(s.changed)
	selected := s.selectLocked()
	s.mu.Unlock()
	stop := context.AfterFunc(ctx, s.close)

	if children != nil {
		children(selected, actions)
		s.catchUp(selected)
	}

	return &Subscription[P]{
		setProps: s.setProps,
		close: func() {
			stop()
			s.close()
		},
	}
}

// Subscription is a live Subscriber render.
type Subscription[P any] struct {
	setProps func(P)
	close    func()
}

// SetProps re-runs the selector with new props, re-rendering if the
// selected value changed.
func (s *Subscription[P]) SetProps(props P) {
	s.setProps(props)
}

// Close stops rendering. It is safe to call more than once.
func (s *Subscription[P]) Close() {
	s.close()
}

type subscription[S, A, Sel, P any] struct {
	ctx         context.Context
	state       *store.State[S]
	selector    Selector[S, P, Sel]
	actions     A
	children    RenderFunc[Sel, A]
	unsubscribe func()

	// mu protects the memoized selection.
	mu       sync.Mutex
	props    P
	selected Sel
	version  uint64
	memoized bool
	closed   bool
}

// selectLocked runs the selector unless neither the state version nor the
// props changed since the last run; s.mu must be held or s unpublished.
func (s *subscription[S, A, Sel, P]) selectLocked() Sel {
	version := s.state.Version()
	if s.memoized && version == s.version {
		return s.selected
	}
	s.selected = s.selector(s.state.GetState(), s.props)
	s.version = version
	s.memoized = true
	return s.selected
}

// catchUp renders again if the selection moved on while the first render
// ran.
func (s *subscription[S, A, Sel, P]) catchUp(rendered Sel) {
	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	next := s.selectLocked()
	s.mu.Unlock()

	if !store.Equal(rendered, next) {
		s.children(next, s.actions)
	}
}

func (s *subscription[S, A, Sel, P]) changed() {
	s.rerender(func() {})
}

func (s *subscription[S, A, Sel, P]) setProps(props P) {
	s.rerender(func() {
		if !store.Equal(s.props, props) {
			s.props = props
			s.memoized = false
		}
	})
}

// rerender applies update, reselects, and calls children outside the lock
// when the selection changed.
func (s *subscription[S, A, Sel, P]) rerender(update func()) {
	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	update()
	prev := s.selected
	next := s.selectLocked()
	s.mu.Unlock()

	if s.children != nil && !store.Equal(prev, next) {
		s.children(next, s.actions)
	}
}

func (s *subscription[S, A, Sel, P]) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()
	collectScope(s.state)
}
