package store

// Update is a single state change travelling through the middleware chain.
type Update struct {
	// Action is the name of the action that produced the update, or "".
	Action string

	// Patch is the Patch[S] for the state being updated. Middleware may
	// replace it with another Patch[S] of the same type.
	Patch any
}

// Next passes an update to the rest of the chain and returns its result.
type Next func(u Update) any

// Middleware wraps the path from SetState to the mutator. It is invoked
// once per state instance; the returned function wraps the next link.
type Middleware func(s Inspector) func(next Next) Next

// Chain composes middleware so the first one is the outermost.
func Chain(s Inspector, final Next, mws ...Middleware) Next {
	next := final
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		next = mws[i](s)(next)
	}
	return next
}

// Inspector is a type-erased, read-only view of a live state, used by
// middleware, devtools, metrics and snapshots.
type Inspector interface {
	// ID is the registry key: "<key joined by __>@<scope>".
	ID() string
	Key() []string
	Name() string
	ScopeID() string
	Snapshot() any
	Version() uint64
	Listeners() int
}
