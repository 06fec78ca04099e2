package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sweetstate/internal/config"
	"github.com/vango-dev/sweetstate/internal/errors"
)

func initCmd(dir *string) *cobra.Command {
	var (
		useYAML bool
		backend string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default sweetstate.json",
		Long: `Write a configuration file with the default settings to the
directory given by --dir. An existing configuration is kept unless
--force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(*dir) && !force {
				return errors.New("S501").
					WithDetail("A configuration file already exists in " + *dir + ".").
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Snapshot.Backend = backend
			if err := cfg.Validate(); err != nil {
				return err
			}

			name := config.ConfigFileName
			if useYAML {
				name = config.YAMLConfigFileName
			}
			path := filepath.Join(*dir, name)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Write sweetstate.yaml instead of sweetstate.json")
	cmd.Flags().StringVar(&backend, "backend", config.BackendSQLite, "Snapshot backend (sqlite or s3)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")

	return cmd
}
