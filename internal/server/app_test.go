package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/blobs"
	"github.com/dmitrijs2005/svgkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = filepath.Join(t.TempDir(), "svgkeeper.db")
	c.EndpointAddrWS = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.LogLevel = "error"
	c.Argon2 = cryptox.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLength: 32, SaltLen: 16}
	return c
}

func TestNewApp_RunAndStop(t *testing.T) {
	c := testConfig(t)
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	resp := app.router.Handle(context.Background(), []byte(`{"action":"createUser","username":"alice","password":"pw"}`))
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, 1, app.sessions.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, 0, app.sessions.Len())
}

func TestNewApp_DataSurvivesRestart(t *testing.T) {
	c := testConfig(t)
	ctx := context.Background()

	app, err := NewApp(ctx, c)
	require.NoError(t, err)
	resp := app.router.Handle(ctx, []byte(`{"action":"createUser","username":"alice","password":"pw"}`))
	require.True(t, resp.Success)
	require.NoError(t, app.db.Close())

	app, err = NewApp(ctx, c)
	require.NoError(t, err)
	defer app.db.Close()

	resp = app.router.Handle(ctx, []byte(`{"action":"login","username":"alice","password":"pw"}`))
	assert.True(t, resp.Success, resp.Error)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "oracle"
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)

	c = testConfig(t)
	c.LogLevel = "loud"
	_, err = NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_S3Backend(t *testing.T) {
	orig := newS3Store
	defer func() { newS3Store = orig }()

	store := blobs.NewMemoryStore()
	newS3Store = func(context.Context, *config.Config) (blobs.Store, error) { return store, nil }

	c := testConfig(t)
	c.BlobBackend = config.BlobBackendS3
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	defer app.db.Close()

	ctx := context.Background()
	resp := app.router.Handle(ctx, []byte(`{"action":"createUser","username":"alice","password":"pw"}`))
	require.True(t, resp.Success)
	resp = app.router.Handle(ctx, []byte(`{"action":"saveSVG","sessionToken":"`+resp.SessionToken+`","name":"a","content":"<svg/>"}`))
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, 1, store.Len())
}

func TestNewApp_MemoryBackend(t *testing.T) {
	c := testConfig(t)
	c.BlobBackend = config.BlobBackendMemory
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	defer app.db.Close()

	ctx := context.Background()
	resp := app.router.Handle(ctx, []byte(`{"action":"createUser","username":"alice","password":"pw"}`))
	require.True(t, resp.Success)
	token := resp.SessionToken
	resp = app.router.Handle(ctx, []byte(`{"action":"saveSVG","sessionToken":"`+token+`","name":"a","content":"<svg/>"}`))
	require.True(t, resp.Success, resp.Error)

	var key string
	require.NoError(t, app.db.QueryRowContext(ctx, `select storage_key from documents where owner='alice'`).Scan(&key))
	assert.NotEmpty(t, key)

	resp = app.router.Handle(ctx, []byte(`{"action":"getFileByName","sessionToken":"`+token+`","name":"a"}`))
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "<svg/>", resp.Content)
}

func TestNewApp_S3InitError(t *testing.T) {
	orig := newS3Store
	defer func() { newS3Store = orig }()
	newS3Store = func(context.Context, *config.Config) (blobs.Store, error) { return nil, errors.New("no bucket") }

	c := testConfig(t)
	c.BlobBackend = config.BlobBackendS3
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_UnknownDriverManager(t *testing.T) {
	db, err := dbx.Open(context.Background(), dbx.DriverSQLite, ":memory:", dbx.DefaultPoolConfig(dbx.DriverSQLite))
	require.NoError(t, err)
	defer db.Close()

	c := testConfig(t)
	c.DatabaseDriver = "mysql"
	_, err = newApp(context.Background(), c, logging.Discard(), db)
	require.Error(t, err)
}
