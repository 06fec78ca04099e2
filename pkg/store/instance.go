package store

// Instance is a live store: a state bound to a scope plus the actions
// bound to it.
type Instance[S, A any] struct {
	store   *Store[S, A]
	state   *State[S]
	actions A
}

// State returns the instance's state.
func (i *Instance[S, A]) State() *State[S] {
	return i.state
}

// Actions returns the actions bound without container props.
func (i *Instance[S, A]) Actions() A {
	return i.actions
}

// Store returns the descriptor the instance was created from.
func (i *Instance[S, A]) Store() *Store[S, A] {
	return i.store
}

// Bind returns actions whose Action functions receive props() as their
// container props. A nil props source yields nil props.
func (i *Instance[S, A]) Bind(props func() any) A {
	return i.Dispatcher(props).Actions()
}

// Dispatcher returns a dispatcher whose actions and dispatched Actions
// receive props() as their container props.
func (i *Instance[S, A]) Dispatcher(props func() any) *Dispatcher[S, A] {
	d := &Dispatcher[S, A]{state: i.state, props: props}
	d.actions = i.store.bind(d)
	return d
}

func (i *Instance[S, A]) inspector() Inspector {
	return i.state
}
