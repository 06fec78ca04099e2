package devtools

import (
	"time"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// Middleware publishes every update that reaches the mutator, after it
// is applied.
func Middleware(hub *Hub) store.Middleware {
	return func(s store.Inspector) func(store.Next) store.Next {
		return func(next store.Next) store.Next {
			return func(u store.Update) any {
				res := next(u)
				hub.Publish(Message{
					Type:    TypeUpdate,
					Store:   s.ID(),
					Name:    s.Name(),
					Scope:   s.ScopeID(),
					Action:  u.Action,
					State:   s.Snapshot(),
					Version: s.Version(),
					Time:    time.Now(),
				})
				return res
			}
		}
	}
}

// Attach installs the devtools middleware on r and forwards instance
// lifecycle events to hub. The middleware only runs on instances created
// while store.Defaults.Devtools is true. The returned function stops
// forwarding lifecycle events.
func Attach(r *store.Registry, hub *Hub) (detach func()) {
	r.SetDevtools(Middleware(hub))
	return r.OnChange(func(ev store.Event) {
		hub.Publish(lifecycleMessage(ev))
	})
}
