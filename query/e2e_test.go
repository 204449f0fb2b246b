package query

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Konsultn-Engineering/metal/compiler"
	"github.com/Konsultn-Engineering/metal/database"
	"github.com/Konsultn-Engineering/metal/dialect"
)

const e2eSchema = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT, manager_id INTEGER);
CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, status TEXT, total INTEGER);
CREATE TABLE roles (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE role_user (user_id INTEGER, role_id INTEGER, granted_at TEXT);
CREATE TABLE profiles (id INTEGER PRIMARY KEY, user_id INTEGER, bio TEXT);
`

type e2eEnv struct {
	tables
	exec *database.SQLExecutor
	c    *compiler.Compiler
}

// openSQLite seeds an in-memory database: ann has three orders and two
// roles, bob has one order and cid has none.
func openSQLite(t *testing.T) e2eEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(e2eSchema)
	require.NoError(t, err)

	env := e2eEnv{
		tables: fixture(),
		exec:   database.NewSQLExecutor(db),
		c:      compiler.New(dialect.NewSQLite()),
	}
	ctx := context.Background()
	seed := []*InsertQueryBuilder{
		InsertInto(env.users).Values(
			map[string]any{"id": 1, "name": "ann", "email": "ann@x"},
			map[string]any{"id": 2, "name": "bob", "email": "bob@x", "manager_id": 1},
			map[string]any{"id": 3, "name": "cid", "email": "cid@x", "manager_id": 1},
		),
		InsertInto(env.orders).Values(
			map[string]any{"id": 10, "user_id": 1, "status": "paid", "total": 5},
			map[string]any{"id": 11, "user_id": 1, "status": "open", "total": 7},
			map[string]any{"id": 12, "user_id": 1, "status": "paid", "total": 9},
			map[string]any{"id": 13, "user_id": 2, "status": "paid", "total": 3},
		),
		InsertInto(env.roles).Values(
			map[string]any{"id": 1, "name": "admin"},
			map[string]any{"id": 2, "name": "editor"},
		),
		InsertInto(env.roleUser).Values(
			map[string]any{"user_id": 1, "role_id": 1, "granted_at": "2024-01-01"},
			map[string]any{"user_id": 1, "role_id": 2, "granted_at": "2024-02-01"},
		),
		InsertInto(env.profiles).Values(
			map[string]any{"id": 100, "user_id": 2, "bio": "hi"},
		),
	}
	for _, b := range seed {
		_, err := b.Exec(ctx, env.exec, env.c)
		require.NoError(t, err)
	}
	return env
}

func orderIDs(t *testing.T, user map[string]any) []int64 {
	t.Helper()
	orders, ok := user["orders"].([]map[string]any)
	require.True(t, ok, "orders is %T", user["orders"])
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o["id"].(int64)
	}
	return ids
}

func TestE2EPaginatedIncludeCountsRootRows(t *testing.T) {
	env := openSQLite(t)
	ctx := context.Background()
	base := From(env.users).Columns("id", "name").Include("orders", WithColumns("total")).OrderByAsc("id")

	users, err := base.Limit(1).Offset(0).Execute(ctx, env.exec, env.c)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ann", users[0]["name"])
	assert.ElementsMatch(t, []int64{10, 11, 12}, orderIDs(t, users[0]))

	users, err = base.Limit(2).Execute(ctx, env.exec, env.c)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Len(t, orderIDs(t, users[0]), 3)
	assert.Equal(t, []int64{13}, orderIDs(t, users[1]))

	users, err = base.Limit(2).Offset(1).Execute(ctx, env.exec, env.c)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0]["name"])
	assert.Equal(t, "cid", users[1]["name"])
	assert.Empty(t, orderIDs(t, users[1]))
}

func TestE2EIncludeRolesAndProfile(t *testing.T) {
	env := openSQLite(t)
	users, err := From(env.users).Columns("id").
		Include("roles", WithColumns("name"), WithPivotColumns("granted_at")).
		Include("profile", WithColumns("bio")).
		OrderByAsc("id").
		Limit(3).
		Execute(context.Background(), env.exec, env.c)
	require.NoError(t, err)
	require.Len(t, users, 3)

	roles := users[0]["roles"].([]map[string]any)
	require.Len(t, roles, 2)
	names := []any{roles[0]["name"], roles[1]["name"]}
	assert.ElementsMatch(t, []any{"admin", "editor"}, names)
	pivot := roles[0]["_pivot"].(map[string]any)
	assert.Contains(t, []any{"2024-01-01", "2024-02-01"}, pivot["granted_at"])
	assert.Nil(t, users[0]["profile"])

	assert.Empty(t, users[1]["roles"])
	profile := users[1]["profile"].(map[string]any)
	assert.Equal(t, "hi", profile["bio"])
}

func TestE2EWhereHas(t *testing.T) {
	env := openSQLite(t)
	ctx := context.Background()

	rows, err := From(env.users).Columns("name").
		WhereHas("orders", func(q *SelectQueryBuilder) *SelectQueryBuilder { return q.WhereEq("status", "paid") }).
		OrderByAsc("name").
		Execute(ctx, env.exec, env.c)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"name": "ann"}, {"name": "bob"}}, rows)

	rows, err = From(env.users).Columns("name").WhereHasNot("roles", nil).OrderByAsc("name").Execute(ctx, env.exec, env.c)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"name": "bob"}, {"name": "cid"}}, rows)
}

func TestE2EUpdateDeleteReturning(t *testing.T) {
	env := openSQLite(t)
	ctx := context.Background()

	n, err := Update(env.orders).Set("status", "void").WhereEq("user_id", 1).Exec(ctx, env.exec, env.c)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, err := DeleteFrom(env.orders).WhereEq("status", "void").Returning("id").Query(ctx, env.exec, env.c)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	left, err := From(env.orders).Columns("id").Execute(ctx, env.exec, env.c)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": int64(13)}}, left)

	stats := env.exec.Stats()
	assert.Zero(t, stats.Errors)
	assert.Positive(t, stats.Execs)
}
