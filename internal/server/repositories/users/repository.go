// Package users persists credential records.
package users

import (
	"context"

	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
)

// Repository is the credential table.
//
// Create returns common.ErrorAlreadyExists when the username is taken and
// leaves the existing row untouched. GetUserByLogin returns
// common.ErrorNotFound for unknown usernames.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
