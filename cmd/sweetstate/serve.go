package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/sweetstate/internal/config"
	"github.com/vango-dev/sweetstate/pkg/devtools"
	"github.com/vango-dev/sweetstate/pkg/middleware"
	"github.com/vango-dev/sweetstate/pkg/snapshot"
	"github.com/vango-dev/sweetstate/pkg/store"
)

type serveOptions struct {
	devtools   bool
	metrics    bool
	restore    bool
	saveOnExit bool
	interval   time.Duration
}

func serveCmd(dir *string) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo registry",
		Long: `Run a demo registry with a counter and a todo store that change
on every tick.

Depending on sweetstate.json (or the flags below) the process also:
  • serves devtools at devtools.addr (/stores, /ws)
  • serves Prometheus metrics at metrics.addr (/metrics)
  • restores the configured snapshot before the stores start
  • saves a snapshot on shutdown

Examples:
  sweetstate serve --devtools
  sweetstate serve --metrics --interval=100ms
  sweetstate serve --restore --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.devtools, "devtools", false, "Enable devtools (default from config)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Enable the metrics endpoint (default from config)")
	cmd.Flags().BoolVar(&opts.restore, "restore", false, "Restore the configured snapshot on start")
	cmd.Flags().BoolVar(&opts.saveOnExit, "save", false, "Save a snapshot on shutdown")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "Time between demo updates")

	return cmd
}

func runServe(ctx context.Context, dir string, opts serveOptions) error {
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	if opts.devtools {
		cfg.Devtools.Enabled = true
	}
	if opts.metrics {
		cfg.Metrics.Enabled = true
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner()
	info("serve")
	info("")

	r := store.NewRegistry()
	mws := []store.Middleware{
		middleware.Recover(nil),
		middleware.OpenTelemetry(),
	}

	var promRegistry *prometheus.Registry
	if cfg.Metrics.Enabled {
		promRegistry = prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metricsOpts := []middleware.MetricsOption{
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(promRegistry),
		}
		mws = append(mws, middleware.Prometheus(metricsOpts...))
		defer middleware.TrackRegistry(r, "demo", metricsOpts...)()
	}
	mws = append(mws, middleware.Logger())
	r.Configure(store.Options{Middlewares: mws})

	if opts.restore {
		restoreSnapshot(ctx, cfg, r)
	}

	var hub *devtools.Hub
	if cfg.Devtools.Enabled {
		store.Defaults.Devtools = true
		hub = devtools.NewHub()
		defer hub.Close()
		defer devtools.Attach(r, hub)()
	}

	d := newDemo(r)

	g, gctx := errgroup.WithContext(ctx)

	if hub != nil {
		srv := &http.Server{Addr: cfg.Devtools.Addr, Handler: devtools.Handler(r, hub)}
		success("Devtools on http://%s (stream: ws://%s/ws)", cfg.Devtools.Addr, cfg.Devtools.Addr)
		g.Go(func() error { return serveHTTP(gctx, srv) })
	}

	if promRegistry != nil {
		router := chi.NewRouter()
		router.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: router}
		success("Metrics on http://%s/metrics", cfg.Metrics.Addr)
		g.Go(func() error { return serveHTTP(gctx, srv) })
	}

	g.Go(func() error { return d.run(gctx, opts.interval) })

	err = g.Wait()
	info("")
	info("Shutting down...")

	if opts.saveOnExit {
		if saveErr := saveSnapshot(context.Background(), cfg, r); saveErr != nil && err == nil {
			err = saveErr
		}
	}
	return err
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func restoreSnapshot(ctx context.Context, cfg *config.Config, r *store.Registry) {
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		warn("Snapshot restore skipped: %v", err)
		return
	}
	defer closeBackend()

	names, err := snapshot.Restore(ctx, backend, cfg.Snapshot.Name, r)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			warn("No snapshot named %q yet", cfg.Snapshot.Name)
			return
		}
		slog.Default().Warn("snapshot restore failed", "component", "serve", "error", err)
		warn("Snapshot restore failed: %v", err)
		return
	}
	success("Restored %d stores from %q", len(names), cfg.Snapshot.Name)
}

func saveSnapshot(ctx context.Context, cfg *config.Config, r *store.Registry) error {
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	if err := snapshot.Save(ctx, backend, cfg.Snapshot.Name, r); err != nil {
		return err
	}
	success("Saved snapshot %q", cfg.Snapshot.Name)
	return nil
}
