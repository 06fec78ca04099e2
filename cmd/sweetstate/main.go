package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sweetstate/internal/config"
	"github.com/vango-dev/sweetstate/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬ ┬┌─┐┌─┐┌┬┐┌─┐┌┬┐┌─┐┌┬┐┌─┐
  └─┐│││├┤ ├┤  │ └─┐ │ ├─┤ │ ├┤
  └─┘└┴┘└─┘└─┘ ┴ └─┘ ┴ ┴ ┴ ┴ └─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "sweetstate",
		Short: "Inspect and persist sweetstate stores",
		Long: `sweetstate is a scoped state container for Go.

This tool runs a demo registry with devtools and metrics, streams
devtools messages from a running process, and manages snapshots:

  • serve     run the demo registry with devtools and /metrics
  • watch     follow a devtools stream
  • snapshot  save, show and list store snapshots
  • init      write a default sweetstate.json
  • codes     list error codes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
			} else {
				errors.EnableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "Directory containing sweetstate.json or sweetstate.yaml, or one below it")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored error output")

	// Add commands
	rootCmd.AddCommand(
		serveCmd(&dir),
		watchCmd(&dir),
		snapshotCmd(&dir),
		initCmd(&dir),
		codesCmd(),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig loads and validates the configuration of the project
// containing dir and installs the configured log level on the default
// logger. Without a config file anywhere above dir, defaults are used.
func loadConfig(dir string) (*config.Config, error) {
	if root, err := config.FindProjectRoot(dir); err == nil {
		dir = root
	} else if !errors.HasCode(err, "S201") {
		return nil, err
	}

	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

// printBanner prints the sweetstate ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
