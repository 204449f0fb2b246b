package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/internal/cli"
)

// compileResult is the document printed by compile.
type compileResult struct {
	Dialect string             `json:"dialect" yaml:"dialect"`
	SQL     string             `json:"sql" yaml:"sql"`
	Params  []any              `json:"params" yaml:"params"`
	Plan    *ast.HydrationPlan `json:"plan,omitempty" yaml:"plan,omitempty"`
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case cli.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case cli.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeCompiled(w io.Writer, format string, res compileResult) error {
	if format != cli.FormatText {
		return writeStructured(w, format, res)
	}
	fmt.Fprintln(w, res.SQL)
	if len(res.Params) > 0 {
		fmt.Fprintln(w, "Params:")
		for i, p := range res.Params {
			fmt.Fprintf(w, "  %d: %v\n", i+1, p)
		}
	}
	if res.Plan != nil {
		fmt.Fprintf(w, "Plan: %s (pk %s)\n", res.Plan.RootTable, res.Plan.RootPrimaryKey)
		for _, rel := range res.Plan.Relations {
			fmt.Fprintf(w, "  - %s: %s -> %s [%s]\n", rel.Name, rel.Type, rel.TargetTable, strings.Join(rel.Columns, ", "))
		}
	}
	return nil
}

// writeRows prints one record per line in text mode, with keys sorted.
func writeRows(w io.Writer, format string, rows []map[string]any) error {
	if format != cli.FormatText {
		if rows == nil {
			rows = []map[string]any{}
		}
		return writeStructured(w, format, rows)
	}
	for _, row := range rows {
		fmt.Fprintln(w, formatRecord(row))
	}
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func formatRecord(rec map[string]any) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(rec[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatRecord(val)
	case []map[string]any:
		parts := make([]string, 0, len(val))
		for _, rec := range val {
			parts = append(parts, formatRecord(rec))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case []byte:
		return string(val)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}
