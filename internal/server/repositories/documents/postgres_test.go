package documents

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	upsertQuery = `(?s)^INSERT\s+INTO\s+documents\s*\(owner,\s*name,\s*content,\s*storage_key,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s*\(owner,\s*name\)\s*DO\s+UPDATE\s+SET.*updated_at\s*=\s*EXCLUDED\.updated_at\s*$`
	getQuery    = `(?s)^SELECT\s+owner,\s*name,\s*content,\s*storage_key,\s*updated_at\s+FROM\s+documents\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+name\s*=\s*\$2\s*$`
	keyQuery    = `(?s)^SELECT\s+storage_key\s+FROM\s+documents\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+name\s*=\s*\$2$`
	listQuery   = `(?s)^SELECT\s+name\s+FROM\s+documents\s+WHERE\s+owner\s*=\s*\$1\s+ORDER\s+BY\s+updated_at\s+DESC,\s*name\s+ASC\s*$`
)

func TestUpsert_InlineContent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(upsertQuery).
		WithArgs("alice", "f.svg", []byte("<svg/>"), sql.NullString{}, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Document{Owner: "alice", Name: "f.svg", Content: []byte("<svg/>"), UpdatedAt: ts})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_StorageKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(upsertQuery).
		WithArgs("alice", "f.svg", []byte(nil), sql.NullString{String: "users/alice/k", Valid: true}, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Document{Owner: "alice", Name: "f.svg", StorageKey: "users/alice/k", UpdatedAt: ts})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQuery).WillReturnError(errors.New("fk violation"))

	err := repo.Upsert(context.Background(), &models.Document{Owner: "ghost", Name: "f"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*fk violation`), err.Error())
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(getQuery).
		WithArgs("alice", "f.svg").
		WillReturnRows(sqlmock.NewRows([]string{"owner", "name", "content", "storage_key", "updated_at"}).
			AddRow("alice", "f.svg", []byte("<svg/>"), nil, ts))

	doc, err := repo.Get(context.Background(), "alice", "f.svg")
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg/>"), doc.Content)
	assert.Empty(t, doc.StorageKey)
	assert.True(t, doc.UpdatedAt.Equal(ts))
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQuery).WithArgs("bob", "f.svg").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "bob", "f.svg")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStorageKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(keyQuery).WithArgs("alice", "a").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("users/alice/1"))
	mock.ExpectQuery(keyQuery).WithArgs("alice", "b").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow(nil))
	mock.ExpectQuery(keyQuery).WithArgs("alice", "c").
		WillReturnError(sql.ErrNoRows)

	key, err := repo.StorageKey(context.Background(), "alice", "a")
	require.NoError(t, err)
	assert.Equal(t, "users/alice/1", key)

	key, err = repo.StorageKey(context.Background(), "alice", "b")
	require.NoError(t, err)
	assert.Empty(t, key)

	_, err = repo.StorageKey(context.Background(), "alice", "c")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListNames(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQuery).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))

	names, err := repo.ListNames(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestListNames_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQuery).WithArgs("carol").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	names, err := repo.ListNames(context.Background(), "carol")
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestListNames_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQuery).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").RowError(0, errors.New("broken row")))

	_, err := repo.ListNames(context.Background(), "alice")
	require.ErrorContains(t, err, "broken row")
}
