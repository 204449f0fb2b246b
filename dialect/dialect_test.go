package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/metal/ast"
	"github.com/Konsultn-Engineering/metal/compiler"
)

func intPtr(v int) *int { return &v }

func compile(t *testing.T, d compiler.Dialect, stmt ast.Statement) compiler.Compiled {
	t.Helper()
	out, err := compiler.New(d).Compile(stmt)
	require.NoError(t, err)
	return out
}

func compileErr(t *testing.T, d compiler.Dialect, stmt ast.Statement) error {
	t.Helper()
	_, err := compiler.New(d).Compile(stmt)
	require.Error(t, err)
	return err
}

// recursiveNumbers is WITH RECURSIVE cte_numbers AS (...) SELECT n FROM cte_numbers.
func recursiveNumbers() *ast.SelectQuery {
	return &ast.SelectQuery{
		CTEs: []*ast.CTE{{
			Name:      "cte_numbers",
			Recursive: true,
			Query: &ast.SelectQuery{
				From:    &ast.Table{Name: "numbers"},
				Columns: []ast.Operand{ast.Col("numbers", "n")},
				Where:   ast.Eq(ast.Col("numbers", "n"), 1),
			},
		}},
		From:    &ast.Table{Name: "cte_numbers"},
		Columns: []ast.Operand{ast.Col("cte_numbers", "n")},
	}
}

func TestGet(t *testing.T) {
	for alias, want := range map[string]string{
		"postgres":   "postgres",
		"PostgreSQL": "postgres",
		"pgx":        "postgres",
		"mysql":      "mysql",
		"tidb":       "tidb",
		"sqlite3":    "sqlite",
		"sqlserver":  "mssql",
	} {
		d, err := Get(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, d.Name())
	}

	_, err := Get("oracle")
	assert.ErrorContains(t, err, `unknown dialect "oracle"`)
	assert.Equal(t, []string{"mssql", "mysql", "postgres", "sqlite", "tidb"}, Names())
}

func TestRecursiveCTE(t *testing.T) {
	tests := []struct {
		dialect compiler.Dialect
		sql     string
	}{
		{NewSQLite(), `WITH RECURSIVE "cte_numbers" AS (SELECT "numbers"."n" FROM "numbers" WHERE "numbers"."n" = ?) SELECT "cte_numbers"."n" FROM "cte_numbers";`},
		{NewMSSQL(), `WITH [cte_numbers] AS (SELECT [numbers].[n] FROM [numbers] WHERE [numbers].[n] = @p1) SELECT [cte_numbers].[n] FROM [cte_numbers];`},
		{NewPostgres(), `WITH RECURSIVE "cte_numbers" AS (SELECT "numbers"."n" FROM "numbers" WHERE "numbers"."n" = $1) SELECT "cte_numbers"."n" FROM "cte_numbers";`},
		{NewMySQL(), "WITH RECURSIVE `cte_numbers` AS (SELECT `numbers`.`n` FROM `numbers` WHERE `numbers`.`n` = ?) SELECT `cte_numbers`.`n` FROM `cte_numbers`;"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			out := compile(t, tt.dialect, recursiveNumbers())
			assert.Equal(t, tt.sql, out.SQL)
			assert.Equal(t, []any{1}, out.Params)
		})
	}
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"we""ird"`, NewPostgres().QuoteIdentifier(`we"ird`))
	assert.Equal(t, `"we""ird"`, NewSQLite().QuoteIdentifier(`we"ird`))
	assert.Equal(t, "`we``ird`", NewMySQL().QuoteIdentifier("we`ird"))
	assert.Equal(t, "[we]]ird]", NewMSSQL().QuoteIdentifier("we]ird"))
}

func TestPlaceholders(t *testing.T) {
	q := &ast.SelectQuery{
		From:  &ast.Table{Name: "t"},
		Where: ast.And(ast.Eq(ast.Col("t", "a"), 1), ast.Eq(ast.Col("t", "b"), 2), ast.Eq(ast.Col("t", "c"), 3)),
	}
	assert.Equal(t, `SELECT * FROM "t" WHERE ("t"."a" = $1 AND "t"."b" = $2 AND "t"."c" = $3);`, compile(t, NewPostgres(), q).SQL)
	assert.Equal(t, `SELECT * FROM [t] WHERE ([t].[a] = @p1 AND [t].[b] = @p2 AND [t].[c] = @p3);`, compile(t, NewMSSQL(), q).SQL)
	assert.Equal(t, "SELECT * FROM `t` WHERE (`t`.`a` = ? AND `t`.`b` = ? AND `t`.`c` = ?);", compile(t, NewMySQL(), q).SQL)
}

func TestPagination(t *testing.T) {
	base := func(limit, offset *int, ordered bool) *ast.SelectQuery {
		q := &ast.SelectQuery{From: &ast.Table{Name: "t"}, Limit: limit, Offset: offset}
		if ordered {
			q.OrderBy = []*ast.OrderBy{ast.Ascending(ast.Col("t", "id"))}
		}
		return q
	}

	tests := []struct {
		name    string
		dialect compiler.Dialect
		query   *ast.SelectQuery
		sql     string
	}{
		{"postgres limit offset", NewPostgres(), base(intPtr(10), intPtr(20), false), `SELECT * FROM "t" LIMIT 10 OFFSET 20;`},
		{"postgres offset only", NewPostgres(), base(nil, intPtr(5), false), `SELECT * FROM "t" OFFSET 5;`},
		{"mysql offset only", NewMySQL(), base(nil, intPtr(5), false), "SELECT * FROM `t` LIMIT 18446744073709551615 OFFSET 5;"},
		{"sqlite offset only", NewSQLite(), base(nil, intPtr(5), false), `SELECT * FROM "t" LIMIT -1 OFFSET 5;`},
		{"sqlite limit", NewSQLite(), base(intPtr(3), nil, false), `SELECT * FROM "t" LIMIT 3;`},
		{"mssql without order", NewMSSQL(), base(intPtr(10), intPtr(20), false), `SELECT * FROM [t] ORDER BY (SELECT NULL) OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY;`},
		{"mssql with order", NewMSSQL(), base(intPtr(10), nil, true), `SELECT * FROM [t] ORDER BY [t].[id] ASC OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY;`},
		{"mssql offset only", NewMSSQL(), base(nil, intPtr(5), true), `SELECT * FROM [t] ORDER BY [t].[id] ASC OFFSET 5 ROWS;`},
		{"mssql no pagination", NewMSSQL(), base(nil, nil, false), `SELECT * FROM [t];`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, compile(t, tt.dialect, tt.query).SQL)
		})
	}
}

func TestNullsOrder(t *testing.T) {
	q := &ast.SelectQuery{
		From: &ast.Table{Name: "t"},
		OrderBy: []*ast.OrderBy{
			ast.Descending(ast.Col("t", "score")).WithNulls(ast.NullsLast),
			ast.Ascending(ast.Col("t", "id")).WithNulls(ast.NullsFirst),
		},
	}

	assert.Equal(t, `SELECT * FROM "t" ORDER BY "t"."score" DESC NULLS LAST, "t"."id" ASC NULLS FIRST;`, compile(t, NewPostgres(), q).SQL)
	assert.Equal(t, `SELECT * FROM "t" ORDER BY "t"."score" DESC NULLS LAST, "t"."id" ASC NULLS FIRST;`, compile(t, NewSQLite(), q).SQL)

	for _, d := range []compiler.Dialect{NewMySQL(), NewTiDB(), NewMSSQL()} {
		t.Run(d.Name(), func(t *testing.T) {
			assert.ErrorIs(t, compileErr(t, d, q), compiler.ErrUnsupported)
		})
	}
}

func TestJSONPath(t *testing.T) {
	q := &ast.SelectQuery{
		From:    &ast.Table{Name: "users"},
		Columns: []ast.Operand{&ast.JSONPath{Column: ast.Col("users", "meta"), Path: "$.address.city", Alias: "city"}},
	}
	tests := []struct {
		dialect compiler.Dialect
		sql     string
	}{
		{NewPostgres(), `SELECT "users"."meta" #>> '{address,city}' AS "city" FROM "users";`},
		{NewMySQL(), "SELECT JSON_UNQUOTE(JSON_EXTRACT(`users`.`meta`, '$.address.city')) AS `city` FROM `users`;"},
		{NewSQLite(), `SELECT json_extract("users"."meta", '$.address.city') AS "city" FROM "users";`},
		{NewMSSQL(), `SELECT JSON_VALUE([users].[meta], '$.address.city') AS [city] FROM [users];`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			assert.Equal(t, tt.sql, compile(t, tt.dialect, q).SQL)
		})
	}

	arr := &ast.SelectQuery{From: &ast.Table{Name: "users"}, Columns: []ast.Operand{ast.JSON(ast.Col("users", "tags"), "$.items[0]")}}
	assert.Equal(t, `SELECT "users"."tags" #>> '{items,0}' FROM "users";`, compile(t, NewPostgres(), arr).SQL)
}

func TestMSSQLRenderers(t *testing.T) {
	q := &ast.SelectQuery{
		From:    &ast.Table{Name: "users"},
		Columns: []ast.Operand{&ast.Function{Name: "length", Args: []ast.Operand{ast.Col("users", "name")}, Alias: "len"}},
		Where: ast.And(
			&ast.Binary{Left: ast.Col("users", "name"), Operator: ast.OpILike, Right: ast.Lit("a%")},
			&ast.Binary{Left: ast.Col("users", "email"), Operator: ast.OpNotILike, Right: ast.Lit("%spam%")},
			ast.Like(ast.Col("users", "code"), "X%"),
		),
	}
	out := compile(t, NewMSSQL(), q)
	assert.Equal(t, `SELECT LEN([users].[name]) AS [len] FROM [users] WHERE (LOWER([users].[name]) LIKE LOWER(@p1)`+
		` AND LOWER([users].[email]) NOT LIKE LOWER(@p2) AND [users].[code] LIKE @p3);`, out.SQL)
	assert.Equal(t, []any{"a%", "%spam%", "X%"}, out.Params)
}

// =============================================================================
// INSERT and upserts
// =============================================================================

func upsert(oc *ast.OnConflict, returning ...ast.Operand) *ast.InsertQuery {
	return &ast.InsertQuery{
		Table:      &ast.Table{Name: "users"},
		Columns:    []string{"email", "name"},
		Rows:       [][]ast.Operand{{ast.Lit("a@x.io"), ast.Lit("Ann")}},
		OnConflict: oc,
		Returning:  returning,
	}
}

func excluded(col string) *ast.Column { return &ast.Column{Table: ast.ExcludedTable, Name: col} }

func TestUpsert(t *testing.T) {
	update := &ast.OnConflict{
		Columns: []string{"email"},
		Set:     []ast.Assignment{{Column: "name", Value: excluded("name")}},
	}
	guarded := &ast.OnConflict{
		Columns: []string{"email"},
		Set:     []ast.Assignment{{Column: "name", Value: excluded("name")}},
		Where:   ast.Eq(ast.Col("users", "active"), true),
	}
	nothing := &ast.OnConflict{Columns: []string{"email"}, DoNothing: true}

	tests := []struct {
		name    string
		dialect compiler.Dialect
		query   *ast.InsertQuery
		sql     string
		params  []any
	}{
		{
			name:    "postgres do update returning",
			dialect: NewPostgres(),
			query:   upsert(update, ast.Col("", "id")),
			sql:     `INSERT INTO "users" ("email", "name") VALUES ($1, $2) ON CONFLICT ("email") DO UPDATE SET "name" = EXCLUDED."name" RETURNING "id";`,
			params:  []any{"a@x.io", "Ann"},
		},
		{
			name:    "postgres guarded",
			dialect: NewPostgres(),
			query:   upsert(guarded),
			sql:     `INSERT INTO "users" ("email", "name") VALUES ($1, $2) ON CONFLICT ("email") DO UPDATE SET "name" = EXCLUDED."name" WHERE "users"."active" = $3;`,
			params:  []any{"a@x.io", "Ann", true},
		},
		{
			name:    "sqlite do nothing",
			dialect: NewSQLite(),
			query:   upsert(nothing),
			sql:     `INSERT INTO "users" ("email", "name") VALUES (?, ?) ON CONFLICT ("email") DO NOTHING;`,
			params:  []any{"a@x.io", "Ann"},
		},
		{
			name:    "sqlite do update",
			dialect: NewSQLite(),
			query:   upsert(update, ast.Col("", "id")),
			sql:     `INSERT INTO "users" ("email", "name") VALUES (?, ?) ON CONFLICT ("email") DO UPDATE SET "name" = excluded."name" RETURNING "id";`,
			params:  []any{"a@x.io", "Ann"},
		},
		{
			name:    "mysql duplicate key",
			dialect: NewMySQL(),
			query:   upsert(update),
			sql:     "INSERT INTO `users` (`email`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `name` = VALUES(`name`);",
			params:  []any{"a@x.io", "Ann"},
		},
		{
			name:    "mysql do nothing",
			dialect: NewMySQL(),
			query:   upsert(nothing),
			sql:     "INSERT INTO `users` (`email`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `email` = `email`;",
			params:  []any{"a@x.io", "Ann"},
		},
		{
			name:    "mssql merge",
			dialect: NewMSSQL(),
			query:   upsert(guarded, ast.Col("", "id")),
			sql: `MERGE INTO [users] USING (VALUES (@p1, @p2)) AS [src] ([email], [name]) ON [users].[email] = [src].[email]` +
				` WHEN MATCHED AND [users].[active] = @p3 THEN UPDATE SET [name] = [src].[name]` +
				` WHEN NOT MATCHED THEN INSERT ([email], [name]) VALUES ([src].[email], [src].[name]) OUTPUT INSERTED.[id];`,
			params: []any{"a@x.io", "Ann", true},
		},
		{
			name:    "mssql merge do nothing",
			dialect: NewMSSQL(),
			query:   upsert(nothing),
			sql: `MERGE INTO [users] USING (VALUES (@p1, @p2)) AS [src] ([email], [name]) ON [users].[email] = [src].[email]` +
				` WHEN NOT MATCHED THEN INSERT ([email], [name]) VALUES ([src].[email], [src].[name]);`,
			params: []any{"a@x.io", "Ann"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := compile(t, tt.dialect, tt.query)
			assert.Equal(t, tt.sql, out.SQL)
			assert.Equal(t, tt.params, out.Params)
		})
	}
}

func TestUpsertUnsupported(t *testing.T) {
	tests := []struct {
		name    string
		dialect compiler.Dialect
		query   *ast.InsertQuery
		message string
	}{
		{
			name:    "mysql where guard",
			dialect: NewMySQL(),
			query: upsert(&ast.OnConflict{
				Columns: []string{"email"},
				Set:     []ast.Assignment{{Column: "name", Value: excluded("name")}},
				Where:   ast.Eq(ast.Col("users", "active"), true),
			}),
			message: "mysql dialect: ON DUPLICATE KEY UPDATE cannot carry a WHERE guard",
		},
		{
			name:    "mysql returning",
			dialect: NewMySQL(),
			query:   upsert(nil, ast.Col("", "id")),
			message: "mysql dialect: RETURNING is not supported",
		},
		{
			name:    "mssql merge without conflict columns",
			dialect: NewMSSQL(),
			query:   upsert(&ast.OnConflict{DoNothing: true}),
			message: "mssql dialect: MERGE requires conflict columns",
		},
		{
			name:    "postgres do update without target",
			dialect: NewPostgres(),
			query:   upsert(&ast.OnConflict{Set: []ast.Assignment{{Column: "name", Value: excluded("name")}}}),
			message: "postgres dialect: ON CONFLICT DO UPDATE requires conflict columns",
		},
		{
			name:    "mssql output expression",
			dialect: NewMSSQL(),
			query:   upsert(nil, ast.Fn("upper", ast.Col("", "name"))),
			message: "mssql dialect: OUTPUT only accepts columns",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.dialect, tt.query)
			assert.ErrorIs(t, err, compiler.ErrUnsupported)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestSQLiteUpsertFromSelect(t *testing.T) {
	q := &ast.InsertQuery{
		Table:      &ast.Table{Name: "users"},
		Columns:    []string{"email"},
		Source:     &ast.SelectQuery{From: &ast.Table{Name: "staging"}, Columns: []ast.Operand{ast.Col("staging", "email")}},
		OnConflict: &ast.OnConflict{Columns: []string{"email"}, DoNothing: true},
	}
	err := compileErr(t, NewSQLite(), q)
	assert.ErrorIs(t, err, compiler.ErrUnsupported)
}

func TestMSSQLInsertOutput(t *testing.T) {
	q := &ast.InsertQuery{
		Table:     &ast.Table{Name: "users"},
		Columns:   []string{"name"},
		Rows:      [][]ast.Operand{{ast.Lit("Ann")}, {ast.Lit("Bob")}},
		Returning: []ast.Operand{ast.Col("", "id"), &ast.Column{Name: "name", Alias: "n"}},
	}
	out := compile(t, NewMSSQL(), q)
	assert.Equal(t, `INSERT INTO [users] ([name]) OUTPUT INSERTED.[id], INSERTED.[name] AS [n] VALUES (@p1), (@p2);`, out.SQL)
}

// =============================================================================
// UPDATE and DELETE
// =============================================================================

func TestUpdate(t *testing.T) {
	q := &ast.UpdateQuery{
		Table:     &ast.Table{Name: "posts"},
		Set:       []ast.Assignment{{Column: "status", Value: ast.Lit("hidden")}},
		From:      []ast.TableSource{&ast.Table{Name: "users"}},
		Where:     ast.And(ast.Eq(ast.Col("posts", "user_id"), ast.Col("users", "id")), ast.Eq(ast.Col("users", "banned"), true)),
		Returning: []ast.Operand{ast.Col("", "id")},
	}
	assert.Equal(t,
		`UPDATE "posts" SET "status" = $1 FROM "users" WHERE ("posts"."user_id" = "users"."id" AND "users"."banned" = $2) RETURNING "id";`,
		compile(t, NewPostgres(), q).SQL)
	assert.Equal(t,
		`UPDATE [posts] SET [status] = @p1 OUTPUT INSERTED.[id] FROM [users] WHERE ([posts].[user_id] = [users].[id] AND [users].[banned] = @p2);`,
		compile(t, NewMSSQL(), q).SQL)

	q.Returning = nil
	assert.Equal(t,
		"UPDATE `posts`, `users` SET `status` = ? WHERE (`posts`.`user_id` = `users`.`id` AND `users`.`banned` = ?);",
		compile(t, NewMySQL(), q).SQL)

	aliased := &ast.UpdateQuery{
		Table: &ast.Table{Name: "posts", Alias: "p"},
		Set:   []ast.Assignment{{Column: "views", Value: ast.Lit(0)}},
		Where: ast.Eq(ast.Col("p", "id"), 3),
	}
	assert.Equal(t, `UPDATE [p] SET [views] = @p1 FROM [posts] AS [p] WHERE [p].[id] = @p2;`, compile(t, NewMSSQL(), aliased).SQL)
}

func TestDelete(t *testing.T) {
	using := &ast.DeleteQuery{
		Table: &ast.Table{Name: "posts"},
		Using: []ast.TableSource{&ast.Table{Name: "users"}},
		Where: ast.And(ast.Eq(ast.Col("posts", "user_id"), ast.Col("users", "id")), ast.Eq(ast.Col("users", "banned"), true)),
	}
	assert.Equal(t,
		`DELETE FROM "posts" USING "users" WHERE ("posts"."user_id" = "users"."id" AND "users"."banned" = $1);`,
		compile(t, NewPostgres(), using).SQL)
	assert.Equal(t,
		"DELETE `posts` FROM `posts`, `users` WHERE (`posts`.`user_id` = `users`.`id` AND `users`.`banned` = ?);",
		compile(t, NewMySQL(), using).SQL)

	for _, d := range []compiler.Dialect{NewMSSQL(), NewSQLite()} {
		err := compileErr(t, d, using)
		assert.ErrorIs(t, err, compiler.ErrUnsupported)
		assert.EqualError(t, err, d.Name()+" dialect: DELETE ... USING is not supported")
	}

	returning := &ast.DeleteQuery{
		Table:     &ast.Table{Name: "posts"},
		Where:     ast.Eq(ast.Col("posts", "id"), 9),
		Returning: []ast.Operand{ast.Col("", "id")},
	}
	assert.Equal(t, `DELETE FROM [posts] OUTPUT DELETED.[id] WHERE [posts].[id] = @p1;`, compile(t, NewMSSQL(), returning).SQL)
	assert.Equal(t, `DELETE FROM "posts" WHERE "posts"."id" = ? RETURNING "id";`, compile(t, NewSQLite(), returning).SQL)
}

// =============================================================================
// Stored procedures
// =============================================================================

func addPoints() *ast.ProcedureCall {
	return &ast.ProcedureCall{
		Name: "add_points",
		Params: []ast.ProcedureParam{
			{Name: "user_id", Direction: ast.ParamIn, Value: ast.Lit(7)},
			{Name: "counter", Direction: ast.ParamInOut, Value: ast.Lit(1), DBType: "int"},
			{Name: "total", Direction: ast.ParamOut},
		},
	}
}

func TestProcedureCall(t *testing.T) {
	tests := []struct {
		dialect compiler.Dialect
		sql     string
		params  []any
	}{
		{
			dialect: NewPostgres(),
			sql:     `CALL "add_points"($1, $2, NULL);`,
			params:  []any{7, 1},
		},
		{
			dialect: NewMySQL(),
			sql:     "SET @out_counter = ?; CALL `add_points`(?, @out_counter, @out_total); SELECT @out_counter AS `counter`, @out_total AS `total`;",
			params:  []any{1, 7},
		},
		{
			dialect: NewMSSQL(),
			sql: `DECLARE @out_counter int; DECLARE @out_total sql_variant; SET @out_counter = @p1;` +
				` EXEC [add_points] @user_id = @p2, @counter = @out_counter OUTPUT, @total = @out_total OUTPUT;` +
				` SELECT @out_counter AS [counter], @out_total AS [total];`,
			params: []any{1, 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			out := compile(t, tt.dialect, addPoints())
			assert.Equal(t, tt.sql, out.SQL)
			assert.Equal(t, tt.params, out.Params)
		})
	}
}

func TestProcedureCallSchemaAndNoParams(t *testing.T) {
	p := &ast.ProcedureCall{Schema: "ops", Name: "vacuum_all"}
	assert.Equal(t, `CALL "ops"."vacuum_all"();`, compile(t, NewPostgres(), p).SQL)
	assert.Equal(t, `EXEC [ops].[vacuum_all];`, compile(t, NewMSSQL(), p).SQL)
}

func TestProcedureCallErrors(t *testing.T) {
	for _, d := range []compiler.Dialect{NewSQLite(), NewTiDB()} {
		err := compileErr(t, d, addPoints())
		assert.ErrorIs(t, err, compiler.ErrUnsupported)
		assert.EqualError(t, err, d.Name()+" dialect: stored procedure calls are not supported")
	}

	badName := &ast.ProcedureCall{Name: "p", Params: []ast.ProcedureParam{{Name: "x; DROP", Direction: ast.ParamOut}}}
	assert.ErrorIs(t, compileErr(t, NewMySQL(), badName), compiler.ErrInvalidAST)

	badType := &ast.ProcedureCall{Name: "p", Params: []ast.ProcedureParam{{Name: "x", Direction: ast.ParamOut, DBType: "int; DROP TABLE t"}}}
	assert.ErrorIs(t, compileErr(t, NewMSSQL(), badType), compiler.ErrInvalidAST)

	sized := &ast.ProcedureCall{Name: "p", Params: []ast.ProcedureParam{{Name: "x", Direction: ast.ParamOut, DBType: "nvarchar(100)"}}}
	assert.Equal(t, `DECLARE @out_x nvarchar(100); EXEC [p] @x = @out_x OUTPUT; SELECT @out_x AS [x];`, compile(t, NewMSSQL(), sized).SQL)
}

func TestTiDBInheritsMySQL(t *testing.T) {
	out := compile(t, NewTiDB(), upsert(&ast.OnConflict{
		Columns: []string{"email"},
		Set:     []ast.Assignment{{Column: "name", Value: excluded("name")}},
	}))
	assert.Equal(t, "INSERT INTO `users` (`email`, `name`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `name` = VALUES(`name`);", out.SQL)
}
