package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, doc *models.Document) error {
	query :=
		`INSERT INTO documents (owner, name, content, storage_key, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner, name) DO UPDATE SET
		 content = EXCLUDED.content, storage_key = EXCLUDED.storage_key, updated_at = EXCLUDED.updated_at
		 `

	_, err := r.db.ExecContext(ctx, query, doc.Owner, doc.Name, doc.Content, nullString(doc.StorageKey), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, owner, name string) (*models.Document, error) {
	query :=
		`SELECT owner, name, content, storage_key, updated_at FROM documents
		 WHERE owner = $1 AND name = $2
		 `

	doc := &models.Document{}
	var key sql.NullString
	err := r.db.QueryRowContext(ctx, query, owner, name).Scan(&doc.Owner, &doc.Name, &doc.Content, &key, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	doc.StorageKey = key.String

	return doc, nil
}

func (r *PostgresRepository) StorageKey(ctx context.Context, owner, name string) (string, error) {
	query := `SELECT storage_key FROM documents WHERE owner = $1 AND name = $2`

	var key sql.NullString
	if err := r.db.QueryRowContext(ctx, query, owner, name).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return key.String, nil
}

func (r *PostgresRepository) ListNames(ctx context.Context, owner string) ([]string, error) {
	query :=
		`SELECT name FROM documents
		 WHERE owner = $1
		 ORDER BY updated_at DESC, name ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
