package store

import "sync"

// batcher defers listener notifications while a batch is open.
type batcher struct {
	mu      sync.Mutex
	depth   int
	pending []subscription
}

// Batch groups state updates so listeners are notified once, after the
// outermost batch completes. A subscription whose state changed several
// times runs once, and a Listener watching several changed states is marked
// dirty once.
//
// Batches can be nested. The batch covers every state of the registry,
// regardless of which goroutine performs the update.
func (r *Registry) Batch(fn func()) {
	r.batch.mu.Lock()
	r.batch.depth++
	r.batch.mu.Unlock()

	defer func() {
		r.batch.mu.Lock()
		r.batch.depth--
		var pending []subscription
		if r.batch.depth == 0 {
			pending = r.batch.pending
			r.batch.pending = nil
		}
		r.batch.mu.Unlock()

		notifyUnique(pending)
	}()

	fn()
}

// notify runs listeners now, or queues them if a batch is open.
func (r *Registry) notify(subs []subscription) {
	if len(subs) == 0 {
		return
	}

	r.batch.mu.Lock()
	if r.batch.depth > 0 {
		r.batch.pending = append(r.batch.pending, subs...)
		r.batch.mu.Unlock()
		return
	}
	r.batch.mu.Unlock()

	notifyUnique(subs)
}

// notifyUnique runs each listener once, in first-queued order. Relays
// sharing a target mark it once.
func notifyUnique(subs []subscription) {
	if len(subs) == 0 {
		return
	}
	seen := make(map[uint64]bool, len(subs))
	for _, sub := range subs {
		if seen[sub.key] {
			continue
		}
		seen[sub.key] = true
		if sub.relay == nil {
			sub.fn()
			continue
		}

		if !sub.relay.Relay() {
			continue
		}
		target := sub.relay.Target()
		if seen[target.ID()] {
			continue
		}
		seen[target.ID()] = true
		target.MarkDirty()
	}
}
