package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/svgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/dbtest"
	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/documents"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

var testParams = cryptox.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLength: 32, SaltLen: 16}

func newSQLiteServices(t *testing.T) (*sql.DB, *UserService, *DocumentService) {
	t.Helper()
	db := dbtest.NewSQLite(t)
	rm := &repomanager.SQLiteRepositoryManager{}
	return db,
		NewUserService(db, rm, testParams, logging.Discard()),
		NewDocumentService(db, rm, nil, logging.Discard())
}

func mustCreate(t *testing.T, us *UserService, username string) {
	t.Helper()
	st, err := us.CreateAccount(context.Background(), username, "pw-"+username)
	require.NoError(t, err)
	require.Equal(t, AccountCreated, st)
}

type fakeUsersRepo struct {
	createErr error
	getOut    *models.User
	getErr    error
}

func (f *fakeUsersRepo) Create(context.Context, *models.User) error { return f.createErr }
func (f *fakeUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	return f.getOut, f.getErr
}

type fakeDocsRepo struct {
	upsertErr error
	getErr    error
	listOut   []string
	listErr   error
}

func (f *fakeDocsRepo) Upsert(context.Context, *models.Document) error { return f.upsertErr }
func (f *fakeDocsRepo) Get(context.Context, string, string) (*models.Document, error) {
	return nil, f.getErr
}
func (f *fakeDocsRepo) StorageKey(context.Context, string, string) (string, error) { return "", nil }
func (f *fakeDocsRepo) ListNames(context.Context, string) ([]string, error) {
	return f.listOut, f.listErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	d *fakeDocsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository     { return m.d }
