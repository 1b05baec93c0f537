package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNew_PerDriver(t *testing.T) {
	m, err := New(dbx.DriverPostgres)
	require.NoError(t, err)
	assert.IsType(t, &PostgresRepositoryManager{}, m)

	m, err = New(dbx.DriverSQLite)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepositoryManager{}, m)

	_, err = New("oracle")
	require.Error(t, err)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	pg := &PostgresRepositoryManager{}
	assert.IsType(t, &users.PostgresRepository{}, pg.Users(db))
	assert.IsType(t, &documents.PostgresRepository{}, pg.Documents(db))

	lite := &SQLiteRepositoryManager{}
	assert.IsType(t, &users.SQLiteRepository{}, lite.Users(db))
	assert.IsType(t, &documents.SQLiteRepository{}, lite.Documents(db))
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var dirs []string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		dirs = append(dirs, dir)
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, (&PostgresRepositoryManager{}).RunMigrations(context.Background(), db))
	require.NoError(t, (&SQLiteRepositoryManager{}).RunMigrations(context.Background(), db))
	assert.Equal(t, []string{"postgres", "sqlite"}, dirs)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_SQLiteForReal(t *testing.T) {
	db, err := dbx.Open(context.Background(), dbx.DriverSQLite, ":memory:", dbx.DefaultPoolConfig(dbx.DriverSQLite))
	require.NoError(t, err)
	defer db.Close()

	m := &SQLiteRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), db))
	// idempotent
	require.NoError(t, m.RunMigrations(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('users','documents')`).Scan(&n))
	assert.Equal(t, 2, n)
}
