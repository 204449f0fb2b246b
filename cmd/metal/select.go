package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/metal/internal/cli"
	"github.com/Konsultn-Engineering/metal/query"
	"github.com/Konsultn-Engineering/metal/schema"
)

// selectFlags describe a select over one schema table.
type selectFlags struct {
	table    string
	columns  []string
	includes []string
	where    []string
	order    []string
	limit    int
	offset   int
}

func (f *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "root table (required)")
	cmd.Flags().StringSliceVarP(&f.columns, "columns", "c", nil, "root columns to select")
	cmd.Flags().StringArrayVarP(&f.includes, "include", "i", nil, "relation to eager load, as name or name:col1,col2")
	cmd.Flags().StringArrayVarP(&f.where, "where", "w", nil, "equality filter as column=value")
	cmd.Flags().StringArrayVarP(&f.order, "order", "o", nil, "order column, prefix with - for descending")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of root rows")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "number of root rows to skip")
	_ = cmd.MarkFlagRequired("table")
}

// build loads the schema and turns the flags into a builder. Builder
// errors are sticky and surface when the query is compiled.
func (f *selectFlags) build(schemaPath string) (*query.SelectQueryBuilder, error) {
	registry, err := schema.LoadYAMLFile(schemaPath)
	if err != nil {
		return nil, cli.SchemaError("loading schema", err)
	}
	table, err := registry.Table(f.table)
	if err != nil {
		return nil, cli.SchemaError("resolving table", err)
	}

	b := query.From(table)
	if len(f.columns) > 0 {
		b = b.Columns(f.columns...)
	}
	for _, inc := range f.includes {
		name, cols, _ := strings.Cut(inc, ":")
		var opts []query.RelationOption
		if cols != "" {
			opts = append(opts, query.WithColumns(strings.Split(cols, ",")...))
		}
		b = b.Include(name, opts...)
	}
	for _, w := range f.where {
		col, val, ok := strings.Cut(w, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --where %q (want column=value)", w)
		}
		b = b.WhereEq(col, parseValue(val))
	}
	for _, o := range f.order {
		if col, ok := strings.CutPrefix(o, "-"); ok {
			b = b.OrderByDesc(col)
		} else {
			b = b.OrderByAsc(o)
		}
	}
	if f.limit > 0 {
		b = b.Limit(f.limit)
	}
	if f.offset > 0 {
		b = b.Offset(f.offset)
	}
	return b, nil
}

// parseValue keeps integers and booleans typed so drivers bind them natively.
func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
