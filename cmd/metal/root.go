package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/metal/internal/cli"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	cfg        *cli.Config
	configPath string

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
	format  string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "metal",
		Short: "Compile and run relational queries across SQL dialects",
		Long: `metal - relational query builder

metal builds SELECT statements over tables described in a YAML schema,
eager loads their relations and compiles the result for postgres, mysql,
tidb, sqlite or mssql.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), a.verbose, a.quiet))

			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "dialects" {
				return nil
			}

			var err error
			a.cfg, a.configPath, err = cli.LoadConfig(a.cfgFile)
			if err != nil {
				return cli.ConfigError("loading configuration", err)
			}
			if a.format != "" {
				a.cfg.Format = a.format
				if err := a.cfg.Validate(); err != nil {
					return cli.ConfigError("invalid flags", err)
				}
			}
			if a.configPath != "" {
				slog.Debug("loaded config", "path", a.configPath)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: auto-discover metal.yaml)")
	rootCmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().StringVarP(&a.format, "format", "f", "", "output format: text, json or yaml")

	rootCmd.AddCommand(newCompileCmd(a))
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newDialectsCmd())
	rootCmd.AddCommand(versionCmd)
	return rootCmd
}

// newLogger returns a text logger at warn level, lowered by each -v.
func newLogger(w io.Writer, verbose int, quiet bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose == 1:
		level = slog.LevelInfo
	case verbose > 1:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
