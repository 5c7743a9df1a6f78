package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/boltdb/bolt"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	bookService    BookServiceProvider
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and Setup the logging module.
	err = os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}

	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, NewTickClock(clock))

	app := &App{
		logger:   logger,
		config:   config,
		cleanups: []func() error{flusher, logWriter.Close},
	}

	// Setup the connection to redis and boltDB servers when the catalog needs them.
	var redisClient *redis.Client
	if config.UsesRedis() {
		redisClient, err = GetRedisClient(config)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append([]func() error{redisClient.Close}, app.cleanups...)
	}

	var boltDBClient *bolt.DB
	if config.UsesBolt() {
		boltDBClient, err = GetBoltDBClient(config)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
		}
		app.cleanups = append([]func() error{boltDBClient.Close}, app.cleanups...)
	}

	// Setup the catalog storage and its replication.
	var storage BookStorage
	var queue Queuer
	switch config.Catalog.Storage {
	case StorageRedis:
		storage = NewRedisBookStorage(logger, redisClient, config.Catalog.RedisKey)
	case StorageBolt:
		storage = NewBoltBookStorage(logger, &config.BoltDB, boltDBClient)
	}

	if config.Catalog.Replicate {
		queue = NewRedisQueue(redisClient)
		boltDBConsumer := NewBoltDBConsumer(logger, queue, NewBoltBookStorage(logger, &config.BoltDB, boltDBClient))
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return boltDBConsumer.Consume(ctx, AppendQueue)
		})
	}

	app.bookService = NewBookService(logger, config, NewLogicalClock(clock), storage, queue)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		app.bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)

	// http server exposing the catalog routes.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        apiService.TimeoutHandler(router),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
		ConnContext:    SaveConnInContext,
	}

	return app, nil
}

// Run restores the catalog then starts the api web server, the queue
// consumers and a goroutine which is responsible to stop the server.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.bookService.Restore(nCtx); err != nil {
		app.logger.Error("failed to restore the catalog", zap.Error(err))
		return fmt.Errorf("failed to restore the catalog: %w", err)
	}

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("catalog server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		if err := f(); err != nil {
			fmt.Println("error during app cleanup: ", err)
		}
	}
}

// Serve runs the catalog http server until it is shut down. A closed
// server is a clean exit, any other error cancels the whole group.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("catalog server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("catalog.storage", app.config.Catalog.Storage),
			zap.Bool("catalog.replicate", app.config.Catalog.Replicate),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop waits for the group to wind down then drains the server within
// ShutdownTimeout, closing remaining connections when draining fails.
// It always returns nil so the group reports the serving error only.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("catalog server stopping: shutdown requested")
		} else {
			app.logger.Info("catalog server stopping: a group member failed")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("catalog server drained")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("catalog server drain timed out")
		default:
			app.logger.Info("catalog server drain failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("catalog server closing remaining connections", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
