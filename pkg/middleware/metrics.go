package middleware

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sweetstate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for update duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "sweetstate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for store updates.
type Metrics struct {
	updatesTotal   *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec
	listeners      *prometheus.HistogramVec
	instances      *prometheus.GaugeVec

	// trackMu protects tracked: registries counted by the instances gauge,
	// per label.
	trackMu sync.Mutex
	tracked map[string]map[*store.Registry]*trackedRegistry
}

type trackedRegistry struct {
	refs   int
	remove func()
}

// globalMetrics is the singleton metrics instance, created on the first
// call to Prometheus or TrackRegistry.
var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		updatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of state updates by store, action and status",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "action", "status"}),

		updateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_duration_seconds",
			Help:        "State update duration in seconds, middleware and listeners included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		listeners: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners",
			Help:        "Listeners subscribed to a state at update time",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"store"}),

		instances: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "instances",
			Help:        "Live store instances per registry",
			ConstLabels: config.ConstLabels,
		}, []string{"registry"}),

		tracked: make(map[string]map[*store.Registry]*trackedRegistry),
	}
}

// metricsFor returns the singleton metrics, creating them with opts.
func metricsFor(opts []MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	return globalMetrics
}

// GetMetrics returns the metrics collectors, or nil before the first call
// to Prometheus or TrackRegistry.
func GetMetrics() *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// Prometheus creates middleware that records every update.
//
// Stores are labelled by name (or "anonymous"), not by scope, to keep
// label cardinality bounded. An update is "changed" when it produced a
// new state version, "unchanged" otherwise.
func Prometheus(opts ...MetricsOption) store.Middleware {
	m := metricsFor(opts)

	return func(s store.Inspector) func(store.Next) store.Next {
		label := storeLabel(s)
		return func(next store.Next) store.Next {
			return func(u store.Update) any {
				start := time.Now()
				before := s.Version()

				res := next(u)

				m.updateDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
				m.listeners.WithLabelValues(label).Observe(float64(s.Listeners()))

				status := "unchanged"
				if s.Version() != before {
					status = "changed"
				}
				m.updatesTotal.WithLabelValues(label, actionLabel(u.Action), status).Inc()
				return res
			}
		}
	}
}

// TrackRegistry keeps the instances gauge labelled name up to date with
// the live instances of r. Registries tracked under the same name are
// summed, and tracking one registry twice counts it once. The returned
// function stops tracking; the gauge then drops r's instances.
func TrackRegistry(r *store.Registry, name string, opts ...MetricsOption) (stop func()) {
	m := metricsFor(opts)

	m.trackMu.Lock()
	regs := m.tracked[name]
	if regs == nil {
		regs = make(map[*store.Registry]*trackedRegistry)
		m.tracked[name] = regs
	}
	if t, ok := regs[r]; ok {
		t.refs++
	} else {
		regs[r] = &trackedRegistry{
			refs:   1,
			remove: r.OnChange(func(store.Event) { m.refreshInstances(name) }),
		}
	}
	m.trackMu.Unlock()
	m.refreshInstances(name)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.trackMu.Lock()
			if t, ok := m.tracked[name][r]; ok {
				t.refs--
				if t.refs == 0 {
					t.remove()
					delete(m.tracked[name], r)
				}
			}
			m.trackMu.Unlock()
			m.refreshInstances(name)
		})
	}
}

// refreshInstances sets the gauge for name to the live instances of every
// registry tracked under it.
func (m *Metrics) refreshInstances(name string) {
	m.trackMu.Lock()
	defer m.trackMu.Unlock()

	total := 0
	for r := range m.tracked[name] {
		total += r.Len()
	}
	m.instances.WithLabelValues(name).Set(float64(total))
}

func storeLabel(s store.Inspector) string {
	if name := s.Name(); name != "" {
		return name
	}
	return "anonymous"
}
