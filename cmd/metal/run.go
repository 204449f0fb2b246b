package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/metal/connector"
	"github.com/Konsultn-Engineering/metal/internal/cli"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flags      selectFlags
		schemaPath string
	)
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run a select against the configured database",
		Example: `  metal run -t users -i orders -o -id --limit 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.HasDatabase() {
				return cli.ConfigError("no database configured", errors.New("set database.driver in metal.yaml or METAL_DATABASE_DRIVER"))
			}
			b, err := flags.build(resolveString(schemaPath, a.cfg.Schema))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			conn, err := connector.Open(ctx, a.cfg.Database)
			if err != nil {
				return cli.DBConnectError("opening database", err)
			}
			defer conn.Close()

			rows, err := b.Execute(ctx, conn.Executor(), connector.Compiler(conn))
			if err != nil {
				return cli.CompileError("running query", err)
			}
			stats := conn.Stats()
			slog.Info("query finished", "rows", len(rows), "duration", stats.Queries.Duration)
			return writeRows(cmd.OutOrStdout(), a.cfg.Format, rows)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (default from config)")
	return cmd
}
