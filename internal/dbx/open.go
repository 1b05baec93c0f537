package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// PoolConfig bounds the connection pool behind a *sql.DB.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig returns pool limits suitable for the given driver.
// SQLite gets a single connection: the engine serializes writers anyway and
// an in-memory database exists per connection.
func DefaultPoolConfig(driver string) PoolConfig {
	if driver == DriverSQLite {
		return PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}
	}
	return PoolConfig{MaxOpenConns: 16, MaxIdleConns: 4, ConnMaxLifetime: 30 * time.Minute}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// sqliteForeignKeys is applied by the modernc driver to every new connection.
const sqliteForeignKeys = "_pragma=foreign_keys(1)"

// Open opens a long-lived, pooled handle for driver and dsn and verifies it
// with a ping. For SQLite, foreign key enforcement is switched on for every
// pooled connection.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = withSQLitePragma(dsn)
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

func withSQLitePragma(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteForeignKeys
	}
	return dsn + "?" + sqliteForeignKeys
}
