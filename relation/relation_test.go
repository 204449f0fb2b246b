package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/schema"
)

type fixture struct {
	users, orders, roles, roleUser, profiles *schema.TableDef
}

func newFixture() fixture {
	f := fixture{
		users:    schema.NewTable("users", schema.PK("id", "integer"), schema.Col("name", "text"), schema.Col("team_id", "integer")),
		orders:   schema.NewTable("orders", schema.PK("id", "integer"), schema.Col("user_id", "integer"), schema.Col("total", "numeric")),
		roles:    schema.NewTable("roles", schema.PK("id", "integer"), schema.Col("name", "text")),
		roleUser: schema.NewTable("role_user", schema.Col("user_id", "integer"), schema.Col("role_id", "integer"), schema.Col("granted_at", "timestamp")),
		profiles: schema.NewTable("profiles", schema.PK("id", "integer"), schema.Col("user_id", "integer")),
	}
	f.users.
		Relate("orders", schema.HasManyOf(f.orders, "")).
		Relate("profile", schema.HasOneOf(f.profiles, "")).
		Relate("roles", &schema.BelongsToMany{TargetTable: f.roles, PivotTable: f.roleUser})
	f.orders.Relate("user", schema.BelongsToOf(f.users, ""))
	return f
}

func cond(left, right *ast.Column) ast.Expression {
	return ast.Eq(left, right)
}

func TestJoinsHasMany(t *testing.T) {
	f := newFixture()
	rel, _ := f.users.Relation("orders")

	joins, err := Joins(f.users, "orders", rel, Options{})
	require.NoError(t, err)
	require.Len(t, joins, 1)

	j := joins[0]
	assert.Equal(t, ast.JoinInner, j.Kind)
	assert.Equal(t, "orders", j.Relation)
	assert.Equal(t, &ast.Table{Name: "orders"}, j.Table)
	assert.Equal(t, cond(ast.Col("orders", "user_id"), ast.Col("users", "id")), j.Condition)
}

func TestJoinsHasOneWithAliasAndFilter(t *testing.T) {
	f := newFixture()
	rel, _ := f.users.Relation("profile")
	filter := ast.IsNotNull(ast.Col("p", "user_id"))

	joins, err := Joins(f.users, "profile", rel, Options{Kind: ast.JoinLeft, RootRef: "u", TargetAlias: "p", Filter: filter})
	require.NoError(t, err)
	require.Len(t, joins, 1)
	assert.Equal(t, ast.JoinLeft, joins[0].Kind)
	assert.Equal(t, "p", joins[0].Table.Reference())
	assert.Equal(t, ast.And(cond(ast.Col("p", "user_id"), ast.Col("u", "id")), filter), joins[0].Condition)
}

func TestJoinsBelongsTo(t *testing.T) {
	f := newFixture()
	rel, _ := f.orders.Relation("user")

	joins, err := Joins(f.orders, "user", rel, Options{})
	require.NoError(t, err)
	require.Len(t, joins, 1)
	assert.Equal(t, cond(ast.Col("users", "id"), ast.Col("orders", "user_id")), joins[0].Condition)
}

func TestJoinsBelongsToMany(t *testing.T) {
	f := newFixture()
	rel, _ := f.users.Relation("roles")
	filter := ast.Eq(ast.Col("roles", "name"), "admin")

	joins, err := Joins(f.users, "roles", rel, Options{Kind: ast.JoinLeft, Filter: filter})
	require.NoError(t, err)
	require.Len(t, joins, 2)

	pivot, target := joins[0], joins[1]
	assert.Equal(t, "role_user", pivot.Table.Reference())
	assert.Equal(t, cond(ast.Col("role_user", "user_id"), ast.Col("users", "id")), pivot.Condition)
	assert.Equal(t, "roles", target.Table.Reference())
	assert.Equal(t, ast.And(cond(ast.Col("roles", "id"), ast.Col("role_user", "role_id")), filter), target.Condition)

	for _, j := range joins {
		assert.Equal(t, "roles", j.Relation)
		assert.Equal(t, ast.JoinLeft, j.Kind)
	}
}

func TestJoinsMissingPivot(t *testing.T) {
	f := newFixture()
	_, err := Joins(f.users, "broken", &schema.BelongsToMany{TargetTable: f.roles}, Options{})
	assert.ErrorIs(t, err, ErrMissingPivot)

	_, err = Correlate(f.users, "broken", &schema.BelongsToMany{TargetTable: f.roles}, Options{})
	assert.ErrorIs(t, err, ErrMissingPivot)
}

func TestCorrelate(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name      string
		root      *schema.TableDef
		relation  string
		from      string
		joins     int
		condition ast.Expression
	}{
		{"has many", f.users, "orders", "orders", 0, cond(ast.Col("orders", "user_id"), ast.Col("users", "id"))},
		{"has one", f.users, "profile", "profiles", 0, cond(ast.Col("profiles", "user_id"), ast.Col("users", "id"))},
		{"belongs to", f.orders, "user", "users", 0, cond(ast.Col("users", "id"), ast.Col("orders", "user_id"))},
		{"belongs to many", f.users, "roles", "roles", 1, cond(ast.Col("role_user", "user_id"), ast.Col("users", "id"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := tt.root.Relation(tt.relation)
			require.True(t, ok)
			c, err := Correlate(tt.root, tt.relation, rel, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.from, c.From.Reference())
			assert.Len(t, c.Joins, tt.joins)
			assert.Equal(t, tt.condition, c.Condition)
		})
	}
}

func TestKeys(t *testing.T) {
	f := newFixture()
	rel, _ := f.users.Relation("orders")
	fk, lk := Keys(f.users, rel)
	assert.Equal(t, "user_id", fk)
	assert.Equal(t, "id", lk)

	rel, _ = f.users.Relation("roles")
	fk, lk = Keys(f.users, rel)
	assert.Equal(t, "user_id", fk)
	assert.Equal(t, "id", lk)
}

func TestCorrelationName(t *testing.T) {
	joins := []*ast.Join{
		{Table: &ast.Table{Name: "role_user"}, Relation: "roles"},
		{Table: &ast.Table{Name: "roles", Alias: "r"}, Relation: "roles"},
		{Table: &ast.Table{Name: "teams"}},
	}
	assert.Equal(t, "r", CorrelationName(joins, "roles", "roles"))
	assert.Equal(t, "orders", CorrelationName(joins, "orders", "orders"))
	assert.Len(t, FindJoins(joins, "roles"), 2)
}
