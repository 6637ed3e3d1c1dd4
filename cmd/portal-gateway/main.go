package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-portal-sync/api/swagger"
	"github.com/noah-isme/sma-portal-sync/internal/handler"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/repository"
	"github.com/noah-isme/sma-portal-sync/internal/service"
	"github.com/noah-isme/sma-portal-sync/pkg/cache"
	"github.com/noah-isme/sma-portal-sync/pkg/config"
	"github.com/noah-isme/sma-portal-sync/pkg/database"
	"github.com/noah-isme/sma-portal-sync/pkg/jobs"
	"github.com/noah-isme/sma-portal-sync/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-portal-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-portal-sync/pkg/middleware/requestid"
)

// @title SMA Portal Sync
// @version 0.1.0
// @description Per-role selection, grade, attendance and promotion aggregation over the school records API
// @BasePath /
// @schemes http

type kvStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	readiness := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Storage.Driver == config.StorageRedis || cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			if cfg.Storage.Driver == config.StorageRedis {
				logr.Fatal("failed to connect redis", zap.Error(err))
			}
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	kv, db, err := openStorage(ctx, cfg, cacheRepo)
	if err != nil {
		logr.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close() //nolint:errcheck
		readiness["storage"] = db.PingContext
	}

	metrics := service.NewMetricsService()
	var dashboardCache service.CacheRepository
	if cacheRepo.Enabled() {
		dashboardCache = cacheRepo
	}
	cacheSvc := service.NewCacheService(dashboardCache, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	workspaces := service.Workspaces{}
	queue := jobs.NewQueue("refresh", workspaces.RefreshHandler(), jobs.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		BufferSize: cfg.Refresh.BufferSize,
		Logger:     logr,
	})

	validate := validator.New()
	for _, role := range []models.Role{models.RoleTeacher, models.RoleSuperAdmin} {
		roleLogger := logger.ForRole(logr, string(role))
		w, err := service.NewWorkspace(service.WorkspaceParams{
			Role:       role,
			Config:     cfg,
			KV:         kv,
			Cache:      cacheSvc,
			Metrics:    metrics,
			Notifier:   service.NewNotifierService(roleLogger, 0),
			Dispatcher: queue,
			Validator:  validate,
			Logger:     logr,
		})
		if err != nil {
			logr.Fatal("failed to build workspace", zap.String("role", string(role)), zap.Error(err))
		}
		defer w.Close()
		workspaces[role] = w
	}

	queue.Start(ctx)
	defer queue.Stop()

	for role, w := range workspaces {
		if err := w.Load(ctx); err != nil {
			logr.Warn("workspace restore failed", zap.String("role", string(role)), zap.Error(err))
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterRoutes(r, handler.RouterDeps{
		APIPrefix:  cfg.APIPrefix,
		Workspaces: workspaces,
		Metrics:    metrics,
		Readiness:  readiness,
		EnableDocs: cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStorage selects the key-value backend for selections and sessions.
func openStorage(ctx context.Context, cfg *config.Config, cacheRepo *repository.CacheRepository) (kvStore, *sqlx.DB, error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		if !cacheRepo.Enabled() {
			return nil, nil, errors.New("redis storage requires a reachable redis")
		}
		return repository.NewRedisKV(cacheRepo), nil, nil
	case config.StoragePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		kv := repository.NewKVRepository(db)
		if err := kv.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return kv, db, nil
	case config.StorageSQLite, "":
		db, err := database.NewSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		kv := repository.NewKVRepository(db)
		if err := kv.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return kv, db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
