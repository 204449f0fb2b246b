package main

import (
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/metal/dialect"
	"github.com/Konsultn-Engineering/metal/internal/cli"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		flags       selectFlags
		dialectName string
		schemaPath  string
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL for a select without running it",
		Example: `  metal compile -t users -i orders --limit 10
  metal compile -t users -i roles:name -w active=true --dialect mysql -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := resolveString(dialectName, a.cfg.Dialect)
			d, err := dialect.Get(name)
			if err != nil {
				return cli.ConfigError("resolving dialect", err)
			}
			b, err := flags.build(resolveString(schemaPath, a.cfg.Schema))
			if err != nil {
				return err
			}
			compiled, err := b.Compile(d)
			if err != nil {
				return cli.CompileError("compiling query", err)
			}
			return writeCompiled(cmd.OutOrStdout(), a.cfg.Format, compileResult{
				Dialect: d.Name(),
				SQL:     compiled.SQL,
				Params:  compiled.Params,
				Plan:    b.Plan(),
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dialectName, "dialect", "", "target dialect (default from config)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (default from config)")
	return cmd
}
