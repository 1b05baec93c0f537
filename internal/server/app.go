// Package server wires the svgkeeper server together: storage, session
// registry, request router and the WebSocket and gRPC transports. It also
// handles signals and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/blobs"
	"github.com/dmitrijs2005/svgkeeper/internal/server/config"
	"github.com/dmitrijs2005/svgkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/svgkeeper/internal/server/router"
	"github.com/dmitrijs2005/svgkeeper/internal/server/services"
	"github.com/dmitrijs2005/svgkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/svgkeeper/internal/server/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/svgkeeper/internal/server/grpc"
)

// shutdownGrace is added to the request timeout when waiting for in-flight
// requests at shutdown.
const shutdownGrace = 5 * time.Second

var newS3Store = func(ctx context.Context, c *config.Config) (blobs.Store, error) {
	return blobs.NewS3Store(ctx, blobs.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *sessions.Registry
	router   *router.Router
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

// NewApp opens and migrates the database and builds every component. The
// returned App owns the database handle until Run returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.NewJSON(os.Stdout, level)

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, dbx.DefaultPoolConfig(c.DatabaseDriver))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var store blobs.Store
	switch c.BlobBackend {
	case config.BlobBackendS3:
		if store, err = newS3Store(ctx, c); err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
	case config.BlobBackendMemory:
		logger.Warn(ctx, "document content is kept in memory and lost on restart")
		store = blobs.NewMemoryStore()
	}

	reg := sessions.NewRegistry()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg, reg.Len)

	r := router.New(
		services.NewUserService(db, rm, c.Argon2, logger),
		services.NewDocumentService(db, rm, store, logger),
		reg,
		logger,
		router.WithTimeout(c.RequestTimeout),
		router.WithMetrics(m),
	)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: reg,
		router:   r,
		metrics:  m,
		registry: promReg,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWSServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := ws.NewServer(app.config.EndpointAddrWS, app.router, app.logger,
		ws.WithMaxMessageBytes(app.config.MaxMessageBytes),
		ws.WithMetrics(app.metrics, app.registry),
		ws.WithShutdownTimeout(app.config.RequestTimeout+shutdownGrace),
	)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.router, app.metrics, app.config.MaxMessageBytes)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a transport fails,
// then drops all sessions and closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver, "blob_backend", app.config.BlobBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWSServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "Shutting down", "sessions_dropped", app.sessions.Len())
	app.sessions.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
}
