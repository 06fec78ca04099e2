package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sweetstate/pkg/devtools"
)

func watchCmd(dir *string) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "watch [url]",
		Short: "Follow a devtools stream",
		Long: `Connect to a devtools stream and print every message.

The URL defaults to ws://<devtools.addr>/ws from sweetstate.json.

Examples:
  sweetstate watch
  sweetstate watch ws://localhost:7070/ws --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			url := "ws://" + cfg.Devtools.Addr + "/ws"
			if len(args) == 1 {
				url = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return devtools.Watch(ctx, url, func(m devtools.Message) {
				printMessage(out, m, raw)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "Print messages as JSON lines")

	return cmd
}

func printMessage(w io.Writer, m devtools.Message, raw bool) {
	if raw {
		data, err := json.Marshal(m)
		if err != nil {
			return
		}
		fmt.Fprintln(w, string(data))
		return
	}

	ts := m.Time.Format("15:04:05.000")
	switch m.Type {
	case devtools.TypeInit:
		fmt.Fprintf(w, "%s init %d stores\n", ts, len(m.Stores))
		for _, s := range m.Stores {
			fmt.Fprintf(w, "  %s v%d %s\n", s.ID, s.Version, compactJSON(s.State))
		}
	case devtools.TypeUpdate:
		action := m.Action
		if action == "" {
			action = "anonymous"
		}
		fmt.Fprintf(w, "%s update %s %s v%d %s\n", ts, m.Store, action, m.Version, compactJSON(m.State))
	default:
		fmt.Fprintf(w, "%s %s %s\n", ts, m.Type, m.Store)
	}
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
