// Package server wires configuration, storage backends and services into the
// HTTP API and the gRPC health endpoint, and runs them until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/logm8/logmate/internal/logging"
	"github.com/logm8/logmate/internal/server/blobstore"
	"github.com/logm8/logmate/internal/server/config"
	gs "github.com/logm8/logmate/internal/server/grpc"
	"github.com/logm8/logmate/internal/server/httpapi"
	"github.com/logm8/logmate/internal/server/optioncache"
	"github.com/logm8/logmate/internal/server/repositories/records"
	"github.com/logm8/logmate/internal/server/repositories/repomanager"
	"github.com/logm8/logmate/internal/server/repositories/tags"
	"github.com/logm8/logmate/internal/server/services"
)

// Seams for tests.
var (
	openPostgres = repomanager.OpenPostgres
	newBlobStore = blobstore.New
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	api    *httpapi.API
}

// NewApp connects to Postgres, Redis and S3, runs migrations and builds the
// services. Any failure here is fatal to start-up.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
	}, os.Stdout)

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})

	store, err := newBlobStore(ctx, blobstore.Options{
		Region:       c.S3Region,
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, redis: rdb}
	api, err := app.buildAPI(rm, store)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.api = api
	return app, nil
}

func (app *App) buildAPI(rm repomanager.RepositoryManager, store *blobstore.Store) (*httpapi.API, error) {
	c := app.config

	tagRepo := tags.NewRedisRepository(app.redis)
	recordRepo := records.NewRedisRepository(app.redis)

	keys, err := services.NewKeyStore(app.db, rm, c)
	if err != nil {
		return nil, err
	}
	tokens := services.NewTokenStore(app.db, rm, c)

	snapshot := optioncache.New(store, c.S3Bucket, c.ServiceOptionsSnapshotKey, c.CacheDir, app.logger)

	return httpapi.New(httpapi.Deps{
		Negotiation:    services.NewNegotiationService(keys, tokens, tagRepo, c, app.logger),
		Tags:           services.NewTagService(tagRepo, recordRepo, tokens, c, app.logger),
		Records:        services.NewRecordService(recordRepo, tagRepo, tokens, store, c, app.logger),
		ServiceOptions: services.NewServiceOptionService(app.db, rm, snapshot, app.logger),
		Ready: map[string]httpapi.Check{
			"postgres": app.db.PingContext,
			"redis":    func(ctx context.Context) error { return app.redis.Ping(ctx).Err() },
		},
		AdminSecret: c.SecretKey,
		Logger:      app.logger,
	}), nil
}

// Close releases the store connections.
func (app *App) Close() error {
	var firstErr error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.api.Handler(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled or a signal arrives. If
// either server fails the other is stopped too.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
