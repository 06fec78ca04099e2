package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sweetstate/internal/config"
	"github.com/vango-dev/sweetstate/internal/errors"
	"github.com/vango-dev/sweetstate/pkg/snapshot"
	"github.com/vango-dev/sweetstate/pkg/store"
)

func snapshotCmd(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, show and list store snapshots",
		Long: `Manage snapshots in the backend configured under "snapshot" in
sweetstate.json.

Examples:
  sweetstate snapshot save --steps=20
  sweetstate snapshot show nightly
  sweetstate snapshot list`,
	}

	cmd.AddCommand(
		snapshotSaveCmd(dir),
		snapshotShowCmd(dir),
		snapshotListCmd(dir),
	)

	return cmd
}

func snapshotSaveCmd(dir *string) *cobra.Command {
	var (
		steps   int
		restore bool
	)

	cmd := &cobra.Command{
		Use:   "save [name]",
		Short: "Run the demo stores and save a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Snapshot.Name = args[0]
			}
			if steps < 0 {
				return errors.New("S501").WithDetail("--steps must not be negative")
			}

			r := store.NewRegistry()
			if restore {
				restoreSnapshot(cmd.Context(), cfg, r)
			}
			d := newDemo(r)
			for n := 1; n <= steps; n++ {
				d.step(n)
			}
			return saveSnapshot(cmd.Context(), cfg, r)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 10, "Demo updates to run before saving")
	cmd.Flags().BoolVar(&restore, "restore", false, "Start from the existing snapshot")

	return cmd
}

func snapshotShowCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a stored snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			name := cfg.Snapshot.Name
			if len(args) == 1 {
				name = args[0]
			}

			backend, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			data, err := backend.Load(cmd.Context(), name)
			if err != nil {
				return errors.FromError(err, "S302")
			}
			doc, err := snapshot.Decode(data)
			if err != nil {
				return err
			}
			printDocument(cmd.OutOrStdout(), name, doc)
			return nil
		},
	}
}

func snapshotListCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots (sqlite backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			backend, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			lister, ok := backend.(interface {
				List(ctx context.Context) ([]string, error)
			})
			if !ok {
				return errors.New("S501").
					WithDetail("The " + cfg.Snapshot.Backend + " backend cannot list snapshots.")
			}
			names, err := lister.List(cmd.Context())
			if err != nil {
				return errors.FromError(err, "S302")
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// openBackend opens the configured snapshot backend. The returned
// function releases it.
func openBackend(ctx context.Context, cfg *config.Config) (snapshot.Backend, func() error, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendSQLite:
		b, err := snapshot.OpenSQLite(cfg.SnapshotPath())
		if err != nil {
			return nil, nil, errors.New("S302").Wrap(err)
		}
		return b, b.Close, nil
	case config.BackendS3:
		client, err := snapshot.NewS3Client(ctx, cfg.Snapshot.Region, cfg.Snapshot.Endpoint)
		if err != nil {
			return nil, nil, err
		}
		b := snapshot.NewS3Backend(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
		return b, func() error { return nil }, nil
	default:
		return nil, nil, errors.New("S304").
			WithDetail("No snapshot backend is configured.").
			WithSuggestion(`Set "snapshot.backend" to "sqlite" or "s3" in sweetstate.json`)
	}
}

func printDocument(w io.Writer, name string, doc *snapshot.Document) {
	fmt.Fprintf(w, "Snapshot %s (created %s)\n", name, doc.Created.Format("2006-01-02 15:04:05 MST"))
	for _, n := range doc.Names() {
		var buf bytes.Buffer
		if err := json.Compact(&buf, doc.Stores[n]); err != nil {
			buf.Write(doc.Stores[n])
		}
		fmt.Fprintf(w, "  %s: %s\n", n, buf.String())
	}
}
