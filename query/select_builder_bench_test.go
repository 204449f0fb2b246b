package query

import (
	"testing"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/cache"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/dialect"
)

// Simple query benchmarks
func BenchmarkSimpleSelect(b *testing.B) {
	f := fixture()
	c := compiler.New(dialect.NewPostgres())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		out, err := From(f.users).CompileWith(c)
		if err != nil {
			b.Fatal(err)
		}
		_ = out
	}
}

func BenchmarkSimpleSelectWithWhere(b *testing.B) {
	f := fixture()
	c := compiler.New(dialect.NewPostgres())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		out, err := From(f.users).WhereEq("id", int64(123)).CompileWith(c)
		if err != nil {
			b.Fatal(err)
		}
		_ = out
	}
}

func BenchmarkComplexSelect(b *testing.B) {
	f := fixture()
	c := compiler.New(dialect.NewPostgres())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		out, err := From(f.users).
			Columns("id", "name", "email").
			WhereEq("name", "John").
			WhereIn("id", 1, 2, 3).
			OrderByDesc("email").
			OrderByAsc("name").
			Limit(10).
			CompileWith(c)
		if err != nil {
			b.Fatal(err)
		}
		_ = out
	}
}

// Eager loading with the pagination rewrite
func BenchmarkIncludePaginated(b *testing.B) {
	f := fixture()
	c := compiler.New(dialect.NewPostgres())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		out, err := From(f.users).
			Columns("id", "name").
			Include("orders").
			Include("roles", WithPivotColumns("granted_at")).
			OrderByAsc("id").
			Limit(20).
			CompileWith(c)
		if err != nil {
			b.Fatal(err)
		}
		_ = out
	}
}

func BenchmarkWhereHas(b *testing.B) {
	f := fixture()
	c := compiler.New(dialect.NewMySQL())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		out, err := From(f.users).
			Columns("id").
			WhereHas("orders", func(q *SelectQueryBuilder) *SelectQueryBuilder {
				return q.WhereGt("total", 100)
			}).
			CompileWith(c)
		if err != nil {
			b.Fatal(err)
		}
		_ = out
	}
}

// Compilation with and without the query cache
func BenchmarkCompileCached(b *testing.B) {
	f := fixture()
	qc, err := cache.NewQueryCache(128)
	if err != nil {
		b.Fatal(err)
	}
	q, err := From(f.users).Columns("id", "name").Include("orders").Limit(10).AST()
	if err != nil {
		b.Fatal(err)
	}

	for _, bc := range []struct {
		name string
		c    *compiler.Compiler
	}{
		{"uncached", compiler.New(dialect.NewPostgres())},
		{"cached", compiler.New(dialect.NewPostgres(), compiler.WithCache(qc))},
	} {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := bc.c.Compile(q); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Builder step cost
func BenchmarkBuilderChain(b *testing.B) {
	f := fixture()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q := From(f.users).
			Select(ast.Count(nil)).
			WhereNotNull("email").
			GroupBy("manager_id").
			Having(ast.Gt(ast.Count(nil), 1))
		if q.Err() != nil {
			b.Fatal(q.Err())
		}
	}
}
