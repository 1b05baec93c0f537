// Package services contains server-side business logic. UserService is the
// credential store: account creation and password verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/repomanager"
)

// AccountStatus is the normal-path outcome of CreateAccount.
type AccountStatus int

const (
	AccountCreated AccountStatus = iota
	AccountAlreadyExists
)

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	params      cryptox.Argon2Params
	log         logging.Logger
	now         func() time.Time
}

// NewUserService constructs a UserService hashing with the given argon2
// parameters.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, params cryptox.Argon2Params, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		params:      params,
		log:         log.With("module", "users"),
		now:         time.Now,
	}
}

func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return common.ErrorValidation
	}
	if len(username) > common.MaxUserNameLength || len(password) > common.MaxPasswordLength {
		return common.ErrorValidation
	}
	return nil
}

// CreateAccount registers username with a fresh salt. A taken username is
// reported as AccountAlreadyExists and the stored credential is untouched.
func (s *UserService) CreateAccount(ctx context.Context, username, password string) (AccountStatus, error) {
	if err := validateCredentials(username, password); err != nil {
		return 0, err
	}

	salt := s.params.NewSalt()
	hash, err := cryptox.HashPassword([]byte(password), salt, s.params)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return 0, common.ErrorInternal
	}

	user := &models.User{UserName: username, PasswordHash: hash, Salt: salt, CreatedAt: s.now().UTC()}
	err = s.repomanager.Users(s.db).Create(ctx, user)
	switch {
	case err == nil:
		s.log.Info(ctx, "account created", "username", username)
		return AccountCreated, nil
	case errors.Is(err, common.ErrorAlreadyExists):
		return AccountAlreadyExists, nil
	default:
		s.log.Error(ctx, "error creating account", "username", username, "error", err)
		return 0, common.ErrorInternal
	}
}

// Verify reports whether password matches the stored credential. Unknown
// usernames still pay for one hash so response time does not reveal
// whether the account exists.
func (s *UserService) Verify(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, common.ErrorValidation
	}
	// no stored credential can exceed the limits
	if validateCredentials(username, password) != nil {
		return false, nil
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			dummy, _ := cryptox.HashPassword([]byte(password), s.params.NewSalt(), s.params)
			common.WipeByteArray(dummy)
			return false, nil
		}
		s.log.Error(ctx, "error loading account", "username", username, "error", err)
		return false, common.ErrorInternal
	}

	return cryptox.CheckPassword([]byte(password), user.Salt, user.PasswordHash, s.params), nil
}
