package store

// Action is a unit of state logic. It receives an API bound to a live
// state and the props of the container the action runs under (nil when
// run outside a container). The result is returned to the caller of the
// bound action unchanged; it may be anything, including a channel for
// asynchronous work.
type Action[S, A any] func(api *API[S, A], props any) any

// API is the handle an Action uses to read and write state.
type API[S, A any] struct {
	// Actions are the bound actions of the same instance and props.
	Actions A

	state  *State[S]
	name   string
	parent *Dispatcher[S, A]
}

// GetState returns a snapshot of the current state.
func (a *API[S, A]) GetState() S {
	return a.state.GetState()
}

// SetState applies a patch through the middleware chain. The update is
// attributed to the running action's name.
func (a *API[S, A]) SetState(patch Patch[S]) {
	a.state.apply(a.name, patch)
}

// Dispatch runs another action with the same state and props and returns
// its result.
func (a *API[S, A]) Dispatch(action Action[S, A]) any {
	return a.parent.run(a.name, action)
}

// Dispatcher runs actions against one state with one props source. It is
// passed to a store's actions factory so the returned actions can dispatch.
type Dispatcher[S, A any] struct {
	state   *State[S]
	props   func() any
	actions A
}

// Dispatch runs an anonymous action.
func (d *Dispatcher[S, A]) Dispatch(action Action[S, A]) any {
	return d.run("", action)
}

// Named runs an action under a name. The name is reported to middleware
// and devtools with every update the action makes.
func (d *Dispatcher[S, A]) Named(name string, action Action[S, A]) any {
	return d.run(name, action)
}

// Actions returns the actions bound to this dispatcher. It is the zero
// value while the store's actions factory is still running.
func (d *Dispatcher[S, A]) Actions() A {
	return d.actions
}

// State returns the state the dispatcher is bound to.
func (d *Dispatcher[S, A]) State() *State[S] {
	return d.state
}

func (d *Dispatcher[S, A]) run(name string, action Action[S, A]) any {
	if action == nil {
		return nil
	}
	api := &API[S, A]{
		Actions: d.actions,
		state:   d.state,
		name:    name,
		parent:  d,
	}
	var props any
	if d.props != nil {
		props = d.props()
	}
	return action(api, props)
}
