// Package middleware provides production-grade store middleware for
// sweetstate registries.
//
// This package includes:
//   - structured logging of every update (log/slog)
//   - Prometheus metrics for updates and live instances
//   - OpenTelemetry tracing of updates
//   - panic recovery around the rest of the chain
//
// Install middleware process-wide through store.Defaults or per registry:
//
//	r := store.NewRegistry()
//	r.Configure(store.Options{
//	    Middlewares: []store.Middleware{
//	        middleware.Recover(nil),
//	        middleware.Logger(),
//	        middleware.Prometheus(middleware.WithNamespace("myapp")),
//	        middleware.OpenTelemetry(),
//	    },
//	})
//	middleware.TrackRegistry(r, "app")
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # Metrics
//
//   - sweetstate_updates_total: updates by store, action and status
//   - sweetstate_update_duration_seconds: update duration histogram by store
//   - sweetstate_instances: live instances per registry (TrackRegistry)
//   - sweetstate_listeners: listeners notified per update
package middleware
