// Package main provides a CLI for compiling and running metal queries.
//
// The CLI supports:
//   - compile: Build a select from a YAML schema and print the SQL for a dialect
//   - run: Execute the same select against a configured database and print
//     the hydrated rows
//   - dialects: List dialects and registered database drivers
//   - version: Print version information
//
// Usage:
//
//	metal [flags] <command>
//
// Configuration is read from metal.yaml (see internal/cli), METAL_*
// environment variables and flags, in increasing precedence.
package main

import (
	"github.com/Konsultn-Engineering/metal/internal/cli"

	_ "github.com/Konsultn-Engineering/metal/providers/mysql"
	_ "github.com/Konsultn-Engineering/metal/providers/postgres"
	_ "github.com/Konsultn-Engineering/metal/providers/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cli.ExitWithError(err)
	}
}
