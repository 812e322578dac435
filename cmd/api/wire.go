// AngelaMos | 2026
// wire.go

package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/carterperez-dev/templates/storefront-auth/internal/admin"
	"github.com/carterperez-dev/templates/storefront-auth/internal/auth"
	"github.com/carterperez-dev/templates/storefront-auth/internal/config"
	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
	"github.com/carterperez-dev/templates/storefront-auth/internal/health"
	"github.com/carterperez-dev/templates/storefront-auth/internal/middleware"
	"github.com/carterperez-dev/templates/storefront-auth/internal/server"
	"github.com/carterperez-dev/templates/storefront-auth/internal/user"
)

type app struct {
	server    *server.Server
	auth      *auth.Service
	telemetry *core.Telemetry
	db        *core.Database
	redis     *core.Redis
	logger    *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	tel, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		tel = &core.Telemetry{}
	} else if cfg.Otel.Enabled {
		logger.Info("tracing enabled", "endpoint", cfg.Otel.Endpoint)
	}
	a.telemetry = tel

	if a.db, err = core.NewDatabase(ctx, cfg.Database); err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"max_open_conns", cfg.Database.MaxOpenConns,
	)

	if a.redis, err = core.NewRedis(ctx, cfg.Redis); err != nil {
		a.close()
		return nil, err
	}
	if a.redis != nil {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("redis not configured, rate limiting is per process")
	}

	a.server, a.auth, err = assemble(cfg, logger, backends{
		database: a.db,
		dbStats:  a.db.Stats,
		redis:    a.redis,
		users:    user.NewRepository(a.db.DB),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// backends are the connections newApp opened. assemble reaches them only
// through these fields, so the router can be built over in-memory stores.
type backends struct {
	database health.Checker
	dbStats  func() sql.DBStats
	redis    *core.Redis
	users    user.Repository
}

// assemble builds the router in the order requests see it: request id,
// recovery, logging, headers, session gate, then the route handlers.
func assemble(
	cfg *config.Config,
	logger *slog.Logger,
	b backends,
) (*server.Server, *auth.Service, error) {
	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return nil, nil, err
	}

	users := user.NewService(b.users)

	authCfg := auth.ServiceConfig{
		DefaultPath: cfg.Session.DefaultPath,
		AdminPath:   cfg.Session.AdminPath,
		Logger:      logger,
	}
	gateCfg := middleware.GateConfig{
		CookieName:   cfg.Session.CookieName,
		LoginPath:    cfg.Session.LoginPath,
		DefaultPath:  cfg.Session.DefaultPath,
		SecureCookie: cfg.Session.SecureCookie,
		Logger:       logger,
	}
	if cfg.Session.DenyList {
		revoker := auth.NewRedisRevoker(b.redis.Raw())
		authCfg.Revoker = revoker
		gateCfg.Revocations = revoker
		logger.Info("session deny-list enabled")
	}

	authService := auth.NewService(users, tokens, authCfg)
	authHandler := auth.NewHandler(authService, auth.HandlerConfig{
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
	})

	adminCfg := admin.HandlerConfig{
		DBStats: b.dbStats,
		DBPing:  b.database.Ping,
		Users:   users,
	}
	var deps []health.Dependency
	if b.redis != nil {
		adminCfg.RedisStats = b.redis.PoolStats
		adminCfg.RedisPing = b.redis.Ping
		deps = append(deps, health.Dependency{Name: "redis", Checker: b.redis})
	}
	healthHandler := health.NewHandler(b.database, deps...)

	loginLimiter := middleware.NewRateLimiter(b.redis.Raw(), middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.LoginRequests,
			cfg.RateLimit.LoginBurst,
			cfg.RateLimit.LoginWindow,
		),
		KeyFunc:  middleware.KeyByIPAndPath,
		FailOpen: true,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.SessionGate(tokens, gateCfg))

	healthHandler.RegisterRoutes(router)
	authHandler.RegisterPages(router)
	authHandler.RegisterRoutes(router, loginLimiter.Handler)
	if !cfg.IsProduction() {
		authHandler.RegisterDiagnostics(router)
	}
	user.NewHandler(users).RegisterRoutes(router)
	admin.NewHandler(adminCfg).RegisterRoutes(router)

	return srv, authService, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("database close", "error", err)
	}
}
