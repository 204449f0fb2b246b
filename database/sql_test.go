package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/metal/cache"
)

func newMock(t *testing.T) (*SQLExecutor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLExecutor(db, WithSlowThreshold(0)), mock
}

func TestSQLExecutorQuery(t *testing.T) {
	exec, mock := newMock(t)
	query := `SELECT "users"."id", "users"."name" FROM "users" WHERE "users"."id" > ?;`

	mock.ExpectQuery(query).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(2), []byte("ann")).
			AddRow(int64(3), nil))

	rows, err := exec.Query(context.Background(), query, []any{1})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": int64(2), "name": "ann"},
		{"id": int64(3), "name": nil},
	}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())

	stats := exec.Stats()
	assert.Equal(t, int64(1), stats.Queries)
	assert.Zero(t, stats.Errors)
}

func TestSQLExecutorQueryEmpty(t *testing.T) {
	exec, mock := newMock(t)
	mock.ExpectQuery("SELECT 1;").WillReturnRows(sqlmock.NewRows([]string{"x"}))

	rows, err := exec.Query(context.Background(), "SELECT 1;", nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLExecutorQueryBatchReturnsLastResultSet(t *testing.T) {
	exec, mock := newMock(t)
	query := "SET @out_counter = ?; CALL `add_points`(?, @out_counter); SELECT @out_counter AS `counter`;"

	mock.ExpectQuery(query).
		WithArgs(1, 7).
		WillReturnRows(
			sqlmock.NewRows([]string{}),
			sqlmock.NewRows([]string{"points"}).AddRow(int64(70)),
			sqlmock.NewRows([]string{"counter"}).AddRow(int64(2)),
		)

	rows, err := exec.Query(context.Background(), query, []any{1, 7})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"counter": int64(2)}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecutorExec(t *testing.T) {
	exec, mock := newMock(t)
	query := `DELETE FROM "posts" WHERE "posts"."id" = ?;`
	mock.ExpectExec(query).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := exec.Exec(context.Background(), query, []any{7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), exec.Stats().Execs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLExecutorErrors(t *testing.T) {
	exec, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectQuery("SELECT 1;").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM x;").WillReturnError(boom)

	_, err := exec.Query(context.Background(), "SELECT 1;", nil)
	assert.ErrorIs(t, err, boom)
	_, err = exec.Exec(context.Background(), "DELETE FROM x;", nil)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int64(2), exec.Stats().Errors)
}

func TestSQLExecutorStatementCache(t *testing.T) {
	exec, mock := newMock(t)
	stmts, err := cache.NewStatementCache(8)
	require.NoError(t, err)
	exec.WithStatementCache(stmts)

	query := `SELECT "users"."id" FROM "users" WHERE "users"."id" = ?;`
	prep := mock.ExpectPrepare(query)
	prep.ExpectQuery().WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	prep.ExpectQuery().WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	for _, id := range []int{1, 2} {
		rows, err := exec.Query(context.Background(), query, []any{id})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(id), rows[0]["id"])
	}
	assert.Equal(t, 1, stmts.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlowQueryLogging(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	exec := NewSQLExecutor(db, WithSlowThreshold(time.Nanosecond), WithLogger(logger))

	mock.ExpectQuery("SELECT 1;").
		WillDelayFor(time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	_, err = exec.Query(context.Background(), "SELECT 1;", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "slow query detected")
	assert.Equal(t, int64(1), exec.Stats().Slow)
}

func TestStatsSnapshot(t *testing.T) {
	var s QueryStats
	s.record(false, 10*time.Millisecond, 0, nil)
	s.record(true, 30*time.Millisecond, 20*time.Millisecond, errors.New("x"))

	snap := s.Snapshot()
	assert.Equal(t, StatsSnapshot{Queries: 1, Execs: 1, Duration: 40 * time.Millisecond, Slow: 1, Errors: 1}, snap)
	assert.Equal(t, 20*time.Millisecond, snap.Average())
	assert.Equal(t, "queries=1 execs=1 duration=40ms avg=20ms slow=1 errors=1", snap.String())

	s.Reset()
	assert.Zero(t, s.Snapshot())
}

func TestScanBuffers(t *testing.T) {
	var sb scanBuffers
	sb.prepare(3)
	require.Len(t, sb.ptrs, 3)
	*(sb.ptrs[1].(*any)) = "x"
	assert.Equal(t, "x", sb.vals[1])

	sb.prepare(2)
	assert.Equal(t, []any{nil, nil}, sb.vals)
	assert.Same(t, &sb.vals[0], sb.ptrs[0].(*any))
}
