package store

// Listener is anything that can be notified when a watched state changes.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Relay is a Listener that filters changes on behalf of another Listener,
// such as a selector watching one state for a render. Every relay runs on a
// change; the targets of the relays that pass are marked dirty once per
// notification round, together with listeners watching directly.
type Relay interface {
	Listener

	// Relay reports whether the change concerns the target.
	Relay() bool

	// Target returns the listener to mark dirty.
	Target() Listener
}

// ListenerFunc adapts a function to a Listener with a fresh ID.
func ListenerFunc(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}

type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) MarkDirty() { l.fn() }
func (l *funcListener) ID() uint64 { return l.id }

// NewListenerID returns an ID for a custom Listener implementation. IDs
// come from the same sequence as subscriptions, so they never collide.
func NewListenerID() uint64 {
	return nextID()
}
