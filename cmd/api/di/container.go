package di

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-table/internal/adapter/cache"
	"user-table/internal/adapter/db/postgres"
	ginhandler "user-table/internal/adapter/gin/handler"
	"user-table/internal/adapter/gin/middleware"
	"user-table/internal/adapter/gin/router"
	"user-table/internal/adapter/repository/cached"
	"user-table/internal/config"
	"user-table/internal/infrastructure"
	"user-table/internal/observability"
	"user-table/internal/usecase/user"
	redisclient "user-table/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	Metrics     *observability.Metrics
	Router      *gin.Engine
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	userCache := cache.NewRedisUserCache(
		rdb.Client,
		time.Duration(cfg.Redis.CacheTTL)*time.Second,
		l,
	)

	dbRepo := postgres.NewUserRepo(db, l)
	repo := cached.NewUserRepository(dbRepo, userCache, l)

	userUC := user.New(repo, l)

	metrics := observability.NewMetrics("usertable_api")
	ginRouter := router.SetupAPIRouter(ginhandler.NewUserHandler(userUC, l), router.Common{
		ServiceName: cfg.Logger.ServiceName + "-api",
		Production:  cfg.App.Environment == "production",
		Redis:       rdb.Client,
		RateLimit: middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		},
		Metrics: metrics,
		Log:     l,
	})

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		UserUC:      userUC,
		Metrics:     metrics,
		Router:      ginRouter,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
