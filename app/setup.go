package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/api"
	"github.com/sahilchouksey/curriculum-tracker/config"
	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/router"
	"github.com/sahilchouksey/curriculum-tracker/services/cron"
	"github.com/sahilchouksey/curriculum-tracker/services/storage"
	"github.com/sahilchouksey/curriculum-tracker/utils/auth"
	"github.com/sahilchouksey/curriculum-tracker/utils/cache"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
	"github.com/sahilchouksey/curriculum-tracker/utils/observability"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X .../app.Version=..."
var Version = "dev"

const dashboardCacheTTL = 30 * time.Second

// OpenStore returns the storage selected by DB_DRIVER, initialised
func OpenStore(ctx context.Context, env *config.EnvironmentVariables, log *zap.Logger) (database.Storage, error) {
	var store database.Storage
	switch env.DB_DRIVER {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		store = database.NewMemoryStore()
	case "postgres", "":
		gormStore, err := database.StartGORM(env, log)
		if err != nil {
			return nil, fmt.Errorf("check whether PostgreSQL is running: %w", err)
		}
		store = gormStore
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", env.DB_DRIVER)
	}

	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func SetupAndRunServer() error {

	// Load ENV. A missing .env file is fine when the variables come from the environment.
	if err := config.LoadENV(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}
	if env.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	logs, err := logging.Init(env.LOG_LEVEL, env.GO_ENV)
	if err != nil {
		return err
	}
	defer logs.Closer()
	log := logs.Base

	flushSentry, err := observability.InitSentry(env.SENTRY_DSN, env.GO_ENV, Version)
	if err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(ctx, env, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	// Redis is optional; without it login lockouts and dashboard caching are off
	var redisCache *cache.RedisCache
	if env.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warn("redis unavailable, brute force protection disabled", zap.Error(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	var uploader storage.Uploader
	spaces, err := storage.NewSpacesClient(storage.SpacesConfig{
		AccessKey: env.SPACES_ACCESS_KEY,
		SecretKey: env.SPACES_SECRET_KEY,
		Bucket:    env.SPACES_BUCKET,
		Region:    env.SPACES_REGION,
		Endpoint:  env.SPACES_ENDPOINT,
		CDNURL:    env.SPACES_CDN_URL,
	})
	switch {
	case err == nil:
		uploader = spaces
	case errors.Is(err, storage.ErrNotConfigured):
		log.Info("object storage not configured, avatar uploads disabled")
	default:
		log.Warn("object storage unavailable", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: time.Duration(env.JWT_EXPIRY_MINUTES) * time.Minute,
		Issuer: env.JWT_ISSUER,
	})

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), log)
	svc := router.SetupRoutes(server.GetEngine(), router.Deps{
		Store:             store,
		JWTManager:        jwtManager,
		Cache:             redisCache,
		Uploader:          uploader,
		Log:               log,
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		AccessLog:         true,
		RateLimitRequests: 100,
		DashboardCacheTTL: dashboardCacheTTL,
		Version:           Version,
	})

	// Initialize Cron Manager (only if enabled via environment variable)
	if env.CRON_ENABLED {
		cronManager := cron.NewCronManager(svc.Blacklist, svc.Approvals, log)
		if err := cronManager.Start(); err != nil {
			log.Warn("failed to start cron jobs", zap.Error(err))
		} else {
			defer cronManager.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	if err := server.Shutdown(); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	return <-errCh
}
