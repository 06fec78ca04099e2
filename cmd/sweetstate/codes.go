package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sweetstate/internal/errors"
)

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes [code]",
		Short: "List error codes or explain one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					fmt.Fprintln(out, errors.New(code).FormatCompact())
				}
				return nil
			}

			t, ok := errors.GetTemplate(args[0])
			if !ok {
				return errors.New("S501").WithDetail("Unknown error code " + args[0] + ".")
			}
			fmt.Fprintf(out, "%s (%s)\n", errors.New(args[0]).FormatCompact(), t.Category)
			if t.Detail != "" {
				fmt.Fprintf(out, "\n%s\n", t.Detail)
			}
			return nil
		},
	}
}
