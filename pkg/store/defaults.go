package store

import "reflect"

// MutatorFunc produces the next state from the previous one. prev is a
// pointer to the previous state; patch must be called with a pointer to a
// draft copy. The returned value is a pointer to the next state.
type MutatorFunc func(prev any, patch func(draft any)) any

// Settings are process-wide defaults read when a state is created.
type Settings struct {
	// Devtools enables the devtools middleware installed with
	// Registry.SetDevtools.
	Devtools bool

	// Middlewares run around every SetState, outermost first, before any
	// registry-specific middleware.
	Middlewares []Middleware

	// Mutator computes successor states. Defaults to ShallowCopy.
	Mutator MutatorFunc
}

// Defaults holds the process-wide settings. Change it at startup, before
// stores are instantiated.
var Defaults = Settings{
	Mutator: ShallowCopy,
}

// ShallowCopy copies the previous state into a fresh draft, applies the
// patch to the draft, and returns the draft. Fields the patch does not
// touch keep their previous values.
func ShallowCopy(prev any, patch func(draft any)) any {
	v := reflect.ValueOf(prev)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return prev
	}
	draft := reflect.New(v.Elem().Type())
	draft.Elem().Set(v.Elem())
	patch(draft.Interface())
	return draft.Interface()
}
