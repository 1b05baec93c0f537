package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
)

// SQLiteRepository stores updated_at as unix microseconds so ordering is
// exact integer comparison.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, doc *models.Document) error {
	query := `INSERT INTO documents (owner, name, content, storage_key, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(owner, name) DO UPDATE SET
				content = excluded.content,
				storage_key = excluded.storage_key,
				updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, doc.Owner, doc.Name, doc.Content, nullString(doc.StorageKey), doc.UpdatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, owner, name string) (*models.Document, error) {
	query := `select owner, name, content, storage_key, updated_at from documents where owner=? and name=?`

	doc := &models.Document{}
	var (
		key     sql.NullString
		updated int64
	)
	err := r.db.QueryRowContext(ctx, query, owner, name).Scan(&doc.Owner, &doc.Name, &doc.Content, &key, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	doc.StorageKey = key.String
	doc.UpdatedAt = time.UnixMicro(updated).UTC()

	return doc, nil
}

func (r *SQLiteRepository) StorageKey(ctx context.Context, owner, name string) (string, error) {
	query := `select storage_key from documents where owner=? and name=?`

	var key sql.NullString
	if err := r.db.QueryRowContext(ctx, query, owner, name).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return key.String, nil
}

func (r *SQLiteRepository) ListNames(ctx context.Context, owner string) ([]string, error) {
	query := `select name from documents where owner=? order by updated_at desc, name asc`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanNames(rows)
}
