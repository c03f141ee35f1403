package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-table/internal/adapter/cache"
	ginhandler "user-table/internal/adapter/gin/handler"
	"user-table/internal/adapter/gin/middleware"
	"user-table/internal/adapter/gin/router"
	"user-table/internal/adapter/usersapi"
	"user-table/internal/config"
	"user-table/internal/infrastructure"
	"user-table/internal/observability"
	"user-table/internal/usertable"
	"user-table/internal/web"
	redisclient "user-table/pkg/redis"
)

const janitorInterval = time.Minute

type container struct {
	RedisClient *redisclient.Client
	Sessions    *usertable.Manager
	Router      *gin.Engine
	idle        time.Duration
}

func newContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	metrics := observability.NewMetrics("usertable_web")
	calls := metrics.CallCounter("usertable_web")

	client := usersapi.NewClient(usersapi.Config{
		BaseURL:   cfg.UsersAPI.BaseURL,
		Timeout:   time.Duration(cfg.UsersAPI.TimeoutSeconds) * time.Second,
		UserAgent: cfg.UsersAPI.UserAgent,
	}, nil, l)

	svc := usertable.NewService(client, l)
	svc.Observe(func(o usertable.Outcome) {
		result := "ok"
		if o.Err != nil {
			result = "error"
		}
		calls.WithLabelValues(o.Op.String(), result).Inc()
	})

	stateTTL := time.Duration(cfg.Web.StateTTLSeconds) * time.Second
	sessions := usertable.NewManager(svc, cache.NewTableStore(rdb.Client, stateTTL, l), l)

	tmpl, err := web.Templates()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	session := middleware.SessionConfig{
		CookieName: cfg.Web.SessionCookie,
		TTL:        stateTTL,
		Secure:     cfg.Web.SecureCookies,
	}
	r := router.SetupWebRouter(ginhandler.NewTableHandler(sessions, session, l), tmpl, session, router.Common{
		ServiceName: cfg.Logger.ServiceName + "-web",
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

	l.Info("users API configured",
		zap.String("base_url", cfg.UsersAPI.BaseURL),
		zap.Int("timeout_seconds", cfg.UsersAPI.TimeoutSeconds),
	)

	return &container{
		RedisClient: rdb,
		Sessions:    sessions,
		Router:      r,
		idle:        stateTTL,
	}, nil
}

// Close tears down every live table, then releases Redis. Saved snapshots stay in
// Redis so sessions survive a restart.
func (c *container) Close() error {
	c.Sessions.Shutdown()
	if err := c.RedisClient.Close(); err != nil {
		return fmt.Errorf("failed to close Redis: %w", err)
	}
	return nil
}
