package users

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

// SQLiteRepository stores created_at as unix seconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, password_hash, salt, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(username) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, user.UserName, user.PasswordHash, user.Salt, user.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return checkInserted(res)
}

func (r *SQLiteRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query := `select username, password_hash, salt, created_at from users where username=?`

	user := &models.User{}
	var created int64
	err := r.db.QueryRowContext(ctx, query, userName).Scan(&user.UserName, &user.PasswordHash, &user.Salt, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.CreatedAt = time.Unix(created, 0).UTC()

	return user, nil
}
