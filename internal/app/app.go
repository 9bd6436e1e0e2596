// Package app wires configuration into a running Alexander Files process.
// The server and the standalone worker share the same construction so that
// both see identical repositories, cache, queue and storage.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/cache/memory"
	"github.com/prn-tf/alexander-files/internal/cache/redis"
	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/handler"
	"github.com/prn-tf/alexander-files/internal/lock"
	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/queue"
	"github.com/prn-tf/alexander-files/internal/repository"
	"github.com/prn-tf/alexander-files/internal/repository/postgres"
	"github.com/prn-tf/alexander-files/internal/repository/sqlite"
	"github.com/prn-tf/alexander-files/internal/service"
	"github.com/prn-tf/alexander-files/internal/storage"
)

// App holds every long-lived component of the process.
type App struct {
	config *config.Config
	logger zerolog.Logger

	db          repository.DatabaseHealth
	repos       *repository.Repositories
	redisClient *goredis.Client
	memoryCache *memory.Cache
	cache       repository.Cache
	queue       repository.JobQueue
	storage     storage.Backend
	metrics     *metrics.Metrics

	Sessions *service.SessionService
	Users    *service.UserService
	Files    *service.FileService
	Worker   *service.Worker
}

// SetupLogger builds the process logger from the logging settings.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

// New connects every backing service and builds the services on top of them.
// On error, whatever was already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	a := &App{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	result, err := repository.NewFactory(cfg.Database, logger).
		Register("sqlite", sqlite.Open).
		Register("postgres", postgres.Open).
		Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = result.Database
	a.repos = result.Repos

	locker := lock.Locker(lock.NewMemoryLocker())
	if cfg.Redis.Enabled {
		a.redisClient, err = redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		a.cache = redis.NewCache(a.redisClient)
		locker = lock.NewRedisLocker(a.redisClient)
	} else {
		a.memoryCache = memory.NewCache()
		a.cache = a.memoryCache
		logger.Warn().Msg("redis disabled, sessions are held in process memory")
	}

	switch cfg.Queue.Backend {
	case "redis":
		a.queue = queue.NewRedis(a.redisClient, cfg.Queue.Name)
	default:
		a.queue = queue.NewMemory(cfg.Queue.BufferSize)
		if !cfg.Worker.Embedded {
			logger.Warn().Msg("in-memory queue without an embedded worker, jobs will not be processed")
		}
	}

	a.storage, err = storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	credentials, err := service.NewCredentialService(a.repos.User, cfg.Auth.PasswordDigest, logger)
	if err != nil {
		return nil, err
	}

	a.Sessions = service.NewSessionService(credentials, a.cache, service.SessionConfig{TTL: cfg.Auth.SessionTTL}, a.metrics, logger)
	a.Users = service.NewUserService(a.repos.User, a.repos.File, credentials, a.queue, a.metrics, logger)
	a.Files = service.NewFileService(a.repos.File, a.storage, a.queue, service.FileServiceConfig{PageSize: cfg.Files.PageSize}, a.metrics, logger)
	a.Worker = service.NewWorker(a.queue, a.repos.User, a.repos.File, a.storage, a.metrics, logger, service.WorkerConfig{
		Concurrency: cfg.Worker.Concurrency,
		PollTimeout: cfg.Worker.PollTimeout,
		Locker:      locker,
		LockTTL:     cfg.Worker.LockTTL,
	})

	return a, nil
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return handler.NewRouter(handler.RouterConfig{
		SessionService: a.Sessions,
		UserService:    a.Users,
		FileService:    a.Files,
		Cache:          a.cache,
		DB:             a.db,
		Metrics:        a.metrics,
		MetricsPath:    a.config.Metrics.Path,
		MaxBodySize:    a.config.Server.MaxBodySize,
		Logger:         a.logger,
	}).Handler()
}

// RunServer serves HTTP until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func (a *App) RunServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.Handler(),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	if a.config.Worker.Embedded {
		a.Worker.Start(ctx)
		defer a.Worker.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// RunWorker consumes jobs until ctx is cancelled.
func (a *App) RunWorker(ctx context.Context) error {
	a.Worker.Start(ctx)
	<-ctx.Done()
	a.Worker.Stop()
	return nil
}

// Close releases every backing connection.
func (a *App) Close() {
	if a.memoryCache != nil {
		a.memoryCache.Stop()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close database")
		}
	}
}
