package component

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// ContainerOptions configure a Container.
type ContainerOptions[S, A any] struct {
	// OnInit returns an action run when a mount creates the store instance.
	OnInit func() store.Action[S, A]

	// OnUpdate returns an action run on every Mounted.Update.
	OnUpdate func() store.Action[S, A]

	// DisplayName names the container in logs. Defaults to
	// "Container(<store name>)".
	DisplayName string

	// Registry overrides the registry found on the mount context.
	Registry *store.Registry
}

// ContainerProps are the props a container is mounted with. The zero
// Scope and IsGlobal mean "not set": the container gets a private scope.
type ContainerProps[P any] struct {
	// Scope shares one instance between all containers mounted with it.
	Scope string

	// IsGlobal binds the container to the global instance. It takes
	// precedence over Scope.
	IsGlobal bool

	// Props are passed to actions dispatched under the container.
	Props P
}

// Container binds a store to a scope for a subtree.
type Container[S, A, P any] struct {
	store *store.Store[S, A]
	opts  ContainerOptions[S, A]
	name  string
}

// NewContainer creates a container for s.
func NewContainer[S, A, P any](s *store.Store[S, A], opts ContainerOptions[S, A]) *Container[S, A, P] {
	name := opts.DisplayName
	if name == "" {
		name = "Container(" + displayStoreName(s.Name()) + ")"
	}
	return &Container[S, A, P]{store: s, opts: opts, name: name}
}

// DisplayName returns the container's display name.
func (c *Container[S, A, P]) DisplayName() string {
	return c.name
}

// Mount resolves the container's instance and returns a child context
// carrying it. The mount is released by Unmount or when ctx is done.
func (c *Container[S, A, P]) Mount(ctx context.Context, props ContainerProps[P]) (context.Context, *Mounted[S, A, P]) {
	r := c.opts.Registry
	if r == nil {
		r = RegistryFrom(ctx)
	}

	scopeID := props.Scope
	local := false
	switch {
	case props.IsGlobal:
		scopeID = store.GlobalScope
	case scopeID == "":
		scopeID = localScopeID()
		local = true
	}

	inst, created := acquireScope(r, c.store, scopeID)

	m := &Mounted[S, A, P]{
		container: c,
		registry:  r,
		instance:  inst,
		scopeID:   scopeID,
		local:     local,
		props:     props.Props,
		logger:    slog.Default().With("component", c.name, "scope", scopeID),
	}
	m.dispatcher = inst.Dispatcher(m.currentProps)

	child, cancel := context.WithCancel(WithRegistry(ctx, r))
	child = context.WithValue(child, scopeKey{store: c.store}, &binding[S, A]{
		instance: inst,
		actions:  m.dispatcher.Actions(),
	})
	m.cancel = cancel
	m.stop = context.AfterFunc(ctx, m.release)

	if created && c.opts.OnInit != nil {
		m.logger.Debug("running onInit")
		m.dispatcher.Named("onInit", c.opts.OnInit())
	}

	return child, m
}

// Mounted is one live mount of a Container.
type Mounted[S, A, P any] struct {
	container  *Container[S, A, P]
	registry   *store.Registry
	instance   *store.Instance[S, A]
	dispatcher *store.Dispatcher[S, A]
	scopeID    string
	local      bool
	logger     *slog.Logger
	stop       func() bool
	cancel     context.CancelFunc

	mu      sync.RWMutex
	props   P
	unmount sync.Once
}

// Update replaces the container props and runs OnUpdate.
func (m *Mounted[S, A, P]) Update(props P) {
	m.mu.Lock()
	m.props = props
	m.mu.Unlock()

	if fn := m.container.opts.OnUpdate; fn != nil {
		m.dispatcher.Named("onUpdate", fn())
	}
}

// Props returns the current container props.
func (m *Mounted[S, A, P]) Props() P {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.props
}

// Actions returns the store actions bound with this mount's props.
func (m *Mounted[S, A, P]) Actions() A {
	return m.dispatcher.Actions()
}

// Instance returns the store instance the mount is bound to.
func (m *Mounted[S, A, P]) Instance() *store.Instance[S, A] {
	return m.instance
}

// ScopeID returns the scope the mount is bound to.
func (m *Mounted[S, A, P]) ScopeID() string {
	return m.scopeID
}

// Unmount ends the mount's context, stopping the subscribers and hooks
// rendered under it, and releases the scope. Private scopes are deleted
// from the registry; shared scopes are deleted once no container holds
// them and no listener is subscribed. The global instance is never deleted.
func (m *Mounted[S, A, P]) Unmount() {
	m.stop()
	m.release()
}

func (m *Mounted[S, A, P]) release() {
	m.unmount.Do(func() {
		m.cancel()
		if releaseScope(m.registry, m.instance, m.local) {
			m.logger.Debug("scope released")
		}
	})
}

func (m *Mounted[S, A, P]) currentProps() any {
	return m.Props()
}

func displayStoreName(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}
