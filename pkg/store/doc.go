// Package store provides the state engine behind sweetstate.
//
// A Store is a declarative descriptor: an initial state plus a factory for
// the store's actions. Live state lives in a Registry, which holds one
// Instance per (store, scope) pair. Scopes let independent parts of an
// application hold their own copy of the same store.
//
// # Defining a store
//
//	type Counter struct{ Count int }
//
//	type CounterActions struct {
//	    Increment func(by int) any
//	}
//
//	var CounterStore = store.Create(store.Config[Counter, CounterActions]{
//	    Name:         "counter",
//	    InitialState: Counter{},
//	    Actions: func(d *store.Dispatcher[Counter, CounterActions]) CounterActions {
//	        return CounterActions{
//	            Increment: func(by int) any {
//	                return d.Named("increment", func(api *store.API[Counter, CounterActions], _ any) any {
//	                    api.SetState(func(s *Counter) { s.Count += by })
//	                    return nil
//	                })
//	            },
//	        }
//	    },
//	})
//
// # Using an instance
//
//	inst := store.GetStore(store.DefaultRegistry, CounterStore, store.GlobalScope)
//	unsubscribe := inst.State().Subscribe(func() {
//	    fmt.Println("count:", inst.State().GetState().Count)
//	})
//	defer unsubscribe()
//	inst.Actions().Increment(2)
//
// # Middleware
//
// Every SetState call flows through the registry's middleware chain before
// reaching the mutator. Middleware sees a type-erased Inspector for the
// state being updated and the Update being applied:
//
//	logUpdates := func(s store.Inspector) func(store.Next) store.Next {
//	    return func(next store.Next) store.Next {
//	        return func(u store.Update) any {
//	            res := next(u)
//	            log.Printf("%s %s", s.ID(), u.Action)
//	            return res
//	        }
//	    }
//	}
//
// # Thread Safety
//
// Registries, states and bound actions are safe for concurrent use.
// Listeners are invoked outside of any lock, in subscription order.
package store
