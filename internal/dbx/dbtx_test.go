package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(context.Background(), DriverSQLite, dsn, PoolConfig{MaxOpenConns: 4, MaxIdleConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, v TEXT);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", PoolConfig{})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestOpen_SQLiteEnablesForeignKeys(t *testing.T) {
	db, err := Open(context.Background(), DriverSQLite, ":memory:", DefaultPoolConfig(DriverSQLite))
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	require.Equal(t, 1, on)
}

func TestOpen_SQLiteForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(ctx, DriverSQLite, dsn, PoolConfig{MaxOpenConns: 3, MaxIdleConns: 3})
	require.NoError(t, err)
	defer db.Close()

	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		c, err := db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, c)

		var on int
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&on))
		require.Equal(t, 1, on, "connection %d", i)
	}
	for _, c := range conns {
		require.NoError(t, c.Close())
	}
}

func TestWithSQLitePragma(t *testing.T) {
	require.Equal(t, "a.db?_pragma=foreign_keys(1)", withSQLitePragma("a.db"))
	require.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", withSQLitePragma("file:x?mode=memory"))
	require.Equal(t, "a.db?_pragma=foreign_keys(0)", withSQLitePragma("a.db?_pragma=foreign_keys(0)"))
}

func TestOpen_OpenError(t *testing.T) {
	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }
	defer func() { sqlOpen = orig }()

	_, err := Open(context.Background(), DriverPostgres, "postgres://x", DefaultPoolConfig(DriverPostgres))
	require.ErrorContains(t, err, "no driver")
}

func TestDefaultPoolConfig(t *testing.T) {
	require.Equal(t, 1, DefaultPoolConfig(DriverSQLite).MaxOpenConns)
	require.Greater(t, DefaultPoolConfig(DriverPostgres).MaxOpenConns, 1)
}
