package component

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// scopes counts mounted containers per registry instance so shared scopes
// are released only by the last container. An instance whose last
// container left while listeners were still subscribed is parked in
// orphans and deleted when its last subscriber or hook closes.
//
// mu is held across lookup, counting and deletion so a mount never binds
// to an instance an unmount is deleting.
var scopes = struct {
	mu      sync.Mutex
	counts  map[scopeRef]int
	orphans map[store.Inspector]func() bool
}{
	counts:  make(map[scopeRef]int),
	orphans: make(map[store.Inspector]func() bool),
}

type scopeRef struct {
	registry *store.Registry
	id       string
}

// acquireScope returns the instance of s in scopeID, creating it if needed,
// and counts one more container holding it.
func acquireScope[S, A any](r *store.Registry, s *store.Store[S, A], scopeID string) (*store.Instance[S, A], bool) {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	inst, created := store.LoadOrInit(r, s, scopeID)
	scopes.counts[scopeRef{r, inst.State().ID()}]++
	delete(scopes.orphans, inst.State())
	return inst, created
}

// releaseScope drops one container from inst and deletes it when it is
// unused. Private instances are always deleted; shared ones once no
// container holds them and no listener is subscribed. The global instance
// is never deleted. It reports whether inst was deleted.
func releaseScope[S, A any](r *store.Registry, inst *store.Instance[S, A], private bool) bool {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	state := inst.State()
	ref := scopeRef{r, state.ID()}
	n := scopes.counts[ref] - 1
	if n <= 0 {
		delete(scopes.counts, ref)
	} else {
		scopes.counts[ref] = n
	}

	switch {
	case state.ScopeID() == store.GlobalScope:
		return false
	case private:
		return store.DeleteInstance(r, inst)
	case n > 0:
		return false
	case state.Listeners() == 0:
		return store.DeleteInstance(r, inst)
	}
	scopes.orphans[state] = func() bool { return store.DeleteInstance(r, inst) }
	return false
}

// collectScope deletes the instance behind state if no container holds it
// and its last listener just left.
func collectScope(state store.Inspector) {
	scopes.mu.Lock()
	defer scopes.mu.Unlock()

	del, ok := scopes.orphans[state]
	if !ok || state.Listeners() > 0 {
		return
	}
	delete(scopes.orphans, state)
	del()
}

var localCounter uint64

// localScopeID returns a scope id private to one container mount.
func localScopeID() string {
	return "__local__" + strconv.FormatUint(atomic.AddUint64(&localCounter, 1), 10)
}
