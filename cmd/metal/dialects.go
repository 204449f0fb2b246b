package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/metal/connector"
	"github.com/Konsultn-Engineering/metal/dialect"
)

func newDialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List dialects and database drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Dialects:")
			for _, name := range dialect.Names() {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			fmt.Fprintln(out, "Drivers:")
			for _, name := range connector.Drivers() {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			return nil
		},
	}
}
