// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

var seq atomic.Int64

// NewSQLite returns a fresh, fully migrated in-memory database that is
// closed when the test ends. Each call gets its own database.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", seq.Add(1))
	db, err := dbx.Open(context.Background(), dbx.DriverSQLite, dsn, dbx.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, mustSub(t, migrations.DirSQLite))
	require.NoError(t, err)
	_, err = provider.Up(context.Background())
	require.NoError(t, err)

	return db
}

func mustSub(t testing.TB, dir string) fs.FS {
	t.Helper()
	sub, err := fs.Sub(migrations.Migrations, dir)
	require.NoError(t, err)
	return sub
}
