package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
tables:
  users:
    columns:
      - {name: id, type: integer, primary: true}
      - {name: name, type: text}
    relations:
      orders: {type: HasMany, target: orders, foreignKey: user_id}
  orders:
    columns:
      - {name: id, type: integer, primary: true}
      - {name: user_id, type: integer}
      - {name: total, type: integer}
    relations:
      user: {type: BelongsTo, target: users, foreignKey: user_id}
`

// workspace writes a schema and a config pointing at a sqlite file and
// returns the config path.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))

	dbPath := filepath.Join(dir, "app.db")
	cfg := "dialect: postgres\nschema: " + schemaPath + "\ndatabase:\n  driver: sqlite\n  database: " + dbPath + "\n"
	cfgPath := filepath.Join(dir, "metal.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, total INTEGER);
INSERT INTO users VALUES (1, 'ann'), (2, 'bob');
INSERT INTO orders VALUES (10, 1, 5), (11, 1, 7), (12, 2, 3);
`)
	require.NoError(t, err)
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	cfg := workspace(t)

	out, err := execute(t, "--config", cfg, "compile", "-t", "users", "-i", "orders:total", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `WITH "__metal_pagination_base" AS`)
	assert.Contains(t, out, "Plan: users (pk id)")
	assert.Contains(t, out, "- orders: HasMany -> orders")

	out, err = execute(t, "--config", cfg, "-f", "json", "compile", "-t", "users", "-w", "id=1", "--dialect", "mysql")
	require.NoError(t, err)
	var res compileResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "mysql", res.Dialect)
	assert.Equal(t, "SELECT * FROM `users` WHERE `users`.`id` = ?;", res.SQL)
	assert.Equal(t, []any{float64(1)}, res.Params)
	assert.Nil(t, res.Plan)
}

func TestCompileCommandErrors(t *testing.T) {
	cfg := workspace(t)
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{"unknown table", []string{"compile", "-t", "nope"}, "resolving table"},
		{"unknown relation", []string{"compile", "-t", "users", "-i", "nope"}, "compiling query"},
		{"bad where", []string{"compile", "-t", "users", "-w", "id"}, "invalid --where"},
		{"bad dialect", []string{"compile", "-t", "users", "--dialect", "oracle"}, "resolving dialect"},
		{"bad format", []string{"-f", "xml", "compile", "-t", "users"}, `invalid format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfg}, tt.args...)...)
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestRunCommand(t *testing.T) {
	cfg := workspace(t)

	out, err := execute(t, "--config", cfg, "run", "-t", "users", "-i", "orders:total", "-o", "-id", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "{id=2 name=bob orders=[{id=12 total=3}]}\n(1 rows)\n", out)

	out, err = execute(t, "--config", cfg, "-f", "json", "run", "-t", "users", "-c", "name", "-w", "name=nobody")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestDialectsCommand(t *testing.T) {
	out, err := execute(t, "dialects")
	require.NoError(t, err)
	for _, name := range []string{"postgres", "mysql", "sqlite", "mssql", "tidb", "pgx", "pq"} {
		assert.Contains(t, out, "  - "+name+"\n")
	}
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "ann", parseValue("ann"))
}
