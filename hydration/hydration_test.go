package hydration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/dialect"
)

func intPtr(v int) *int { return &v }

func ordersPlan() ast.HydrationRelationPlan {
	return ast.HydrationRelationPlan{
		Name:             "orders",
		AliasPrefix:      "orders",
		Type:             ast.RelationHasMany,
		TargetTable:      "orders",
		TargetPrimaryKey: "id",
		ForeignKey:       "user_id",
		LocalKey:         "id",
		Columns:          []string{"id", "total"},
	}
}

func usersWithOrders() *ast.SelectQuery {
	return &ast.SelectQuery{
		From: &ast.Table{Name: "users"},
		Columns: []ast.Operand{
			ast.Col("users", "id"),
			ast.Col("users", "name"),
			&ast.Column{Table: "orders", Name: "id", Alias: "orders__id"},
			&ast.Column{Table: "orders", Name: "total", Alias: "orders__total"},
		},
		Joins: []*ast.Join{{
			Kind:      ast.JoinLeft,
			Table:     &ast.Table{Name: "orders"},
			Condition: ast.Eq(ast.Col("orders", "user_id"), ast.Col("users", "id")),
			Relation:  "orders",
		}},
		OrderBy: []*ast.OrderBy{ast.Ascending(ast.Col("users", "id"))},
		Limit:   intPtr(1),
		Offset:  intPtr(0),
	}
}

func manager() Manager {
	return NewManager(NewPlanner("users", "", "id").IncludeRelation(ordersPlan()))
}

// =============================================================================
// Planner
// =============================================================================

func TestPlannerCaptureRootColumns(t *testing.T) {
	p := NewPlanner("users", "u", "id").CaptureRootColumns([]ast.Operand{
		ast.Col("u", "name"),
		&ast.Column{Table: "u", Name: "email", Alias: "mail"},
		ast.Col("users", "id"),
		ast.Col("u", "name"),
		&ast.Column{Table: "orders", Name: "total", Alias: "orders__total"},
		&ast.Column{Table: "u", Name: "x", Alias: "odd__name"},
		ast.Star("u"),
		ast.Count(nil),
	})
	assert.Nil(t, p.Plan(), "no plan without relations")

	plan := p.IncludeRelation(ordersPlan()).Plan()
	require.NotNil(t, plan)
	assert.Equal(t, []string{"name", "mail", "id"}, plan.RootColumns)
}

func TestPlannerIncludeAddsPrimaryKey(t *testing.T) {
	plan := NewPlanner("users", "", "id").
		CaptureRootColumns([]ast.Operand{ast.Col("users", "name")}).
		IncludeRelation(ordersPlan()).
		Plan()
	assert.Equal(t, []string{"name", "id"}, plan.RootColumns)
	assert.Equal(t, "users", plan.RootTable)
	assert.Equal(t, "id", plan.RootPrimaryKey)
}

func TestPlannerIncludeReplacesByName(t *testing.T) {
	first := ordersPlan()
	second := ordersPlan()
	second.Columns = []string{"id"}
	profile := ast.HydrationRelationPlan{Name: "profile", AliasPrefix: "profile", Type: ast.RelationHasOne}

	p := NewPlanner("users", "", "id").IncludeRelation(first).IncludeRelation(profile)
	replaced := p.IncludeRelation(second)

	plan := replaced.Plan()
	require.Len(t, plan.Relations, 2)
	assert.Equal(t, "profile", plan.Relations[0].Name)
	assert.Equal(t, []string{"id"}, plan.Relations[1].Columns)

	// the earlier planner is unchanged
	assert.Equal(t, []string{"id", "total"}, p.Plan().Relations[0].Columns)
}

// =============================================================================
// Manager
// =============================================================================

func TestApplyToASTWithoutPlan(t *testing.T) {
	q := usersWithOrders()
	out := NewManager(NewPlanner("users", "", "id")).ApplyToAST(q)
	assert.Same(t, q, out)
}

func TestApplyToASTRewritesPagination(t *testing.T) {
	q := usersWithOrders()
	out := manager().ApplyToAST(q)

	require.NotSame(t, q, out)
	require.NotNil(t, out.Hydration())
	assert.Equal(t, []string{"id", "name"}, out.Hydration().RootColumns)
	require.Len(t, out.CTEs, 2)
	assert.Equal(t, "__metal_pagination_base", out.CTEs[0].Name)
	assert.Equal(t, "__metal_pagination_page", out.CTEs[1].Name)
	assert.False(t, out.HasPagination())

	// the input is untouched
	assert.Nil(t, q.Meta)
	assert.Empty(t, q.CTEs)
	assert.Equal(t, 1, *q.Limit)

	compiled, err := compiler.New(dialect.NewSQLite()).Compile(out)
	require.NoError(t, err)
	assert.Equal(t,
		`WITH "__metal_pagination_base" AS (SELECT "users"."id", "users"."name", "orders"."id" AS "orders__id", "orders"."total" AS "orders__total"`+
			` FROM "users" LEFT JOIN "orders" ON "orders"."user_id" = "users"."id"),`+
			` "__metal_pagination_page" AS (SELECT DISTINCT "__metal_pagination_base"."id" FROM "__metal_pagination_base"`+
			` ORDER BY "__metal_pagination_base"."id" ASC LIMIT 1 OFFSET 0)`+
			` SELECT "__metal_pagination_base"."id", "__metal_pagination_base"."name", "__metal_pagination_base"."orders__id", "__metal_pagination_base"."orders__total"`+
			` FROM "__metal_pagination_base" INNER JOIN "__metal_pagination_page" ON "__metal_pagination_page"."id" = "__metal_pagination_base"."id"`+
			` ORDER BY "__metal_pagination_base"."id" ASC;`,
		compiled.SQL)
}

func TestApplyToASTKeepsRelationTags(t *testing.T) {
	out := manager().ApplyToAST(usersWithOrders())
	base := out.CTEs[0].Query
	require.Len(t, base.Joins, 1)
	assert.Equal(t, "orders", base.Joins[0].Relation)
}

func TestApplyToASTOrderByAliasAndExtraColumns(t *testing.T) {
	q := usersWithOrders()
	q.Columns = append([]ast.Operand{&ast.Column{Table: "users", Name: "created_at", Alias: "joined"}}, q.Columns...)
	q.OrderBy = []*ast.OrderBy{ast.Descending(ast.Col("", "joined")).WithNulls(ast.NullsLast), ast.Ascending(ast.Col("users", "id"))}

	out := manager().ApplyToAST(q)
	require.Len(t, out.CTEs, 2)
	page := out.CTEs[1].Query
	assert.Equal(t, []ast.Operand{
		ast.Col("__metal_pagination_base", "id"),
		ast.Col("__metal_pagination_base", "joined"),
	}, page.Columns)
	assert.Equal(t, []*ast.OrderBy{
		ast.Descending(ast.Col("__metal_pagination_base", "joined")).WithNulls(ast.NullsLast),
		ast.Ascending(ast.Col("__metal_pagination_base", "id")),
	}, out.OrderBy)
}

func TestApplyToASTAvoidsCTENameCollisions(t *testing.T) {
	q := usersWithOrders()
	q.CTEs = []*ast.CTE{
		{Name: "__metal_pagination_base", Query: &ast.SelectQuery{From: &ast.Table{Name: "x"}}},
		{Name: "__metal_pagination_base_1", Query: &ast.SelectQuery{From: &ast.Table{Name: "y"}}},
	}
	out := manager().ApplyToAST(q)
	require.Len(t, out.CTEs, 4)
	assert.Equal(t, "__metal_pagination_base_2", out.CTEs[2].Name)
	assert.Equal(t, "__metal_pagination_page", out.CTEs[3].Name)
	assert.Nil(t, out.CTEs[2].Query.CTEs)
}

func TestApplyToASTFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *ast.SelectQuery)
	}{
		{"order by child column", func(q *ast.SelectQuery) {
			q.OrderBy = []*ast.OrderBy{ast.Descending(ast.Col("orders", "total"))}
		}},
		{"order by relation alias", func(q *ast.SelectQuery) {
			q.OrderBy = []*ast.OrderBy{ast.Ascending(ast.Col("", "orders__total"))}
		}},
		{"order by child column under a plain alias", func(q *ast.SelectQuery) {
			q.Columns = append(q.Columns, &ast.Column{Table: "orders", Name: "status", Alias: "status"})
			q.OrderBy = []*ast.OrderBy{ast.Ascending(ast.Col("", "status"))}
		}},
		{"order by unknown output name", func(q *ast.SelectQuery) {
			q.OrderBy = []*ast.OrderBy{ast.Ascending(ast.Col("", "missing"))}
		}},
		{"order by unprojected root column", func(q *ast.SelectQuery) {
			q.OrderBy = []*ast.OrderBy{ast.Ascending(ast.Col("users", "created_at"))}
		}},
		{"order by expression", func(q *ast.SelectQuery) {
			q.OrderBy = []*ast.OrderBy{ast.Ascending(ast.Fn("lower", ast.Col("users", "name")))}
		}},
		{"unnamed projection", func(q *ast.SelectQuery) {
			q.Columns = append(q.Columns, ast.Count(nil))
		}},
		{"star projection", func(q *ast.SelectQuery) {
			q.Columns = append(q.Columns, ast.Star("users"))
		}},
		{"duplicate output names", func(q *ast.SelectQuery) {
			q.Columns = append(q.Columns, &ast.Column{Table: "users", Name: "email", Alias: "name"})
		}},
		{"primary key not projected", func(q *ast.SelectQuery) {
			q.Columns = q.Columns[1:]
			q.OrderBy = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := usersWithOrders()
			tt.mutate(q)
			out := manager().ApplyToAST(q)
			assert.Empty(t, out.CTEs)
			assert.Equal(t, q.Limit, out.Limit)
			assert.Equal(t, q.Columns, out.Columns)
			assert.NotNil(t, out.Hydration(), "plan is attached on fallback")
		})
	}
}

func TestApplyToASTSkipsWithoutTrigger(t *testing.T) {
	t.Run("no pagination", func(t *testing.T) {
		q := usersWithOrders()
		q.Limit, q.Offset = nil, nil
		out := manager().ApplyToAST(q)
		assert.Empty(t, out.CTEs)
		assert.NotNil(t, out.Hydration())
	})

	t.Run("single valued relation", func(t *testing.T) {
		rel := ordersPlan()
		rel.Type = ast.RelationHasOne
		out := NewManager(NewPlanner("users", "", "id").IncludeRelation(rel)).ApplyToAST(usersWithOrders())
		assert.Empty(t, out.CTEs)
		assert.Equal(t, 1, *out.Limit)
	})

	t.Run("set operation", func(t *testing.T) {
		q := usersWithOrders()
		q.SetOps = []*ast.SetOperation{{Operator: ast.SetUnion, Query: &ast.SelectQuery{From: &ast.Table{Name: "users"}}}}
		out := manager().ApplyToAST(q)
		assert.Empty(t, out.CTEs)
		assert.NotNil(t, out.Hydration())
	})
}

// =============================================================================
// Materialize
// =============================================================================

func TestMaterialize(t *testing.T) {
	roles := ast.HydrationRelationPlan{
		Name: "roles", AliasPrefix: "roles", Type: ast.RelationBelongsToMany,
		TargetTable: "roles", TargetPrimaryKey: "id", Columns: []string{"id", "name"},
		Pivot: &ast.HydrationPivotPlan{Table: "role_user", AliasPrefix: "roles_pivot", Columns: []string{"granted_at"}},
	}
	profile := ast.HydrationRelationPlan{
		Name: "profile", AliasPrefix: "profile", Type: ast.RelationHasOne,
		TargetTable: "profiles", TargetPrimaryKey: "id", Columns: []string{"id", "bio"},
	}
	plan := NewPlanner("users", "", "id").
		CaptureRootColumns([]ast.Operand{ast.Col("users", "id"), ast.Col("users", "name")}).
		IncludeRelation(ordersPlan()).
		IncludeRelation(roles).
		IncludeRelation(profile).
		Plan()

	row := func(id int64, name string, orderID, total, roleID any, roleName any, profileID any) map[string]any {
		return map[string]any{
			"id": id, "name": name,
			"orders__id": orderID, "orders__total": total,
			"roles__id": roleID, "roles__name": roleName, "roles_pivot__granted_at": "2024",
			"profile__id": profileID, "profile__bio": "hi",
		}
	}
	rows := []map[string]any{
		row(1, "ann", int64(10), 5.0, int64(1), "admin", int64(7)),
		row(1, "ann", int64(10), 5.0, int64(2), "dev", int64(7)),
		row(1, "ann", int64(11), 9.0, int64(1), "admin", int64(7)),
		row(2, "bob", nil, nil, nil, nil, nil),
		row(1, "ann", int64(12), 1.0, int64(2), "dev", int64(7)),
	}

	out, err := Materialize(rows, plan)
	require.NoError(t, err)
	require.Len(t, out, 2)

	ann := out[0]
	assert.Equal(t, int64(1), ann["id"])
	assert.Equal(t, "ann", ann["name"])
	assert.NotContains(t, ann, "orders__id")

	orders := ann["orders"].([]map[string]any)
	require.Len(t, orders, 3)
	assert.Equal(t, []any{int64(10), int64(11), int64(12)}, []any{orders[0]["id"], orders[1]["id"], orders[2]["id"]})

	userRoles := ann["roles"].([]map[string]any)
	require.Len(t, userRoles, 2)
	assert.Equal(t, map[string]any{"granted_at": "2024"}, userRoles[0][PivotKey])
	assert.Equal(t, map[string]any{"id": int64(7), "bio": "hi"}, ann["profile"])

	bob := out[1]
	assert.Equal(t, "bob", bob["name"])
	assert.Empty(t, bob["orders"])
	assert.Empty(t, bob["roles"])
	assert.Nil(t, bob["profile"])
}

func TestMaterializeWithoutPlan(t *testing.T) {
	rows := []map[string]any{{"id": 1}}
	out, err := Materialize(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, rows, out)
}

func TestMaterializeMissingPrimaryKey(t *testing.T) {
	plan := NewPlanner("users", "", "id").IncludeRelation(ordersPlan()).Plan()
	_, err := Materialize([]map[string]any{{"name": "ann"}}, plan)
	assert.ErrorContains(t, err, `no root primary key column "id"`)
}
