// Package snapshot persists the state of named global stores and restores
// it as registry initial states.
//
// A snapshot is a JSON document mapping store names to their state.
// Restore feeds it to Registry.Configure, so each store picks up its
// saved state the next time it is instantiated:
//
//	backend, _ := snapshot.OpenSQLite("state.db")
//	_ = snapshot.Save(ctx, backend, "nightly", registry)
//	...
//	_, _ = snapshot.Restore(ctx, backend, "nightly", freshRegistry)
package snapshot
