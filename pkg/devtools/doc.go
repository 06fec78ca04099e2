// Package devtools streams store activity to external inspectors.
//
// A Hub fans out JSON messages to websocket clients. Attach installs the
// devtools middleware on a registry and forwards instance lifecycle
// events, so every update and every created or deleted instance reaches
// connected clients:
//
//	hub := devtools.NewHub()
//	defer devtools.Attach(registry, hub)()
//	store.Defaults.Devtools = true
//	http.ListenAndServe(":7070", devtools.Handler(registry, hub))
//
// The handler serves the current store snapshots as JSON and the live
// stream at /ws. A new stream always starts with an "init" message
// carrying every live instance.
package devtools
