package component

import (
	"context"

	"github.com/vango-dev/sweetstate/pkg/store"
)

type registryKey struct{}

type listenerKey struct{}

// scopeKey identifies the container binding of one store descriptor.
type scopeKey struct {
	store any
}

// binding is what a mounted container publishes to its subtree.
type binding[S, A any] struct {
	instance *store.Instance[S, A]
	actions  A
}

// WithRegistry returns a context whose containers, subscribers and hooks
// use r.
func WithRegistry(ctx context.Context, r *store.Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFrom returns the registry carried by ctx, or
// store.DefaultRegistry.
func RegistryFrom(ctx context.Context) *store.Registry {
	if r, ok := ctx.Value(registryKey{}).(*store.Registry); ok && r != nil {
		return r
	}
	return store.DefaultRegistry
}

// WithListener returns a context whose hook calls subscribe l. The
// subscriptions end when ctx is done.
func WithListener(ctx context.Context, l store.Listener) context.Context {
	return context.WithValue(ctx, listenerKey{}, l)
}

// ListenerFrom returns the listener carried by ctx, if any.
func ListenerFrom(ctx context.Context) store.Listener {
	l, _ := ctx.Value(listenerKey{}).(store.Listener)
	return l
}

// resolve returns the instance and actions visible from ctx for s.
func resolve[S, A any](ctx context.Context, s *store.Store[S, A]) (*store.Instance[S, A], A) {
	if b, ok := ctx.Value(scopeKey{store: s}).(*binding[S, A]); ok {
		return b.instance, b.actions
	}
	inst := store.GetStore(RegistryFrom(ctx), s, store.GlobalScope)
	return inst, inst.Actions()
}
