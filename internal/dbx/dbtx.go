// Package dbx holds the database/sql plumbing shared by the svgkeeper
// repositories: the DBTX handle they are built on, transaction scoping and
// the pooled opener for the pgx and sqlite drivers.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is what a repository needs from database/sql. *sql.DB and *sql.Tx
// both satisfy it, so a repository manager can hand out the same
// repository bound to either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back on an error or a panic; a panic is re-raised after rollback.
//
// Replacing a blob-backed document reads the old object key and writes the
// new row atomically:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := manager.Documents(tx)
//	    old, err := repo.StorageKey(ctx, owner, name)
//	    if err != nil && !errors.Is(err, common.ErrorNotFound) {
//	        return err
//	    }
//	    previous = old
//	    return repo.Upsert(ctx, doc)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
