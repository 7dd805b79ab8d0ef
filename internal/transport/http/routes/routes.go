package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/infra/config"
	"github.com/hzwnrw/jellyfin-manager/internal/transport/http/handlers"
	"github.com/hzwnrw/jellyfin-manager/internal/transport/http/middleware"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth        *usecase.AuthService
	Accounts    *usecase.AccountService
	Expirations *usecase.ExpirationService
	Profile     *usecase.ProfileService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *middleware.HTTPMetrics
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := map[string]handlers.DependencyCheck{}
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}

	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionGate := middleware.SessionGate(deps.Services.Auth)
	requireAuth := middleware.RequireAuth()

	api := r.Group("/api")
	api.Use(sessionGate)
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Logger)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", authHandler.Login)
		// Logout succeeds with or without a live session.
		authGroup.POST("/logout", authHandler.Logout)

		accountHandler := handlers.NewAccountHandler(deps.Services.Accounts, deps.Services.Expirations, deps.Logger)

		accountGroup := api.Group("/accounts")
		accountGroup.Use(requireAuth)
		accountGroup.GET("", accountHandler.List)
		accountGroup.POST("/sync", accountHandler.Sync)
		accountGroup.POST("/:id/disable", accountHandler.SetDisabled)
		accountGroup.PUT("/:id/expiration", accountHandler.ScheduleExpiration)
		accountGroup.DELETE("/:id/expiration", accountHandler.ClearExpiration)

		api.GET("/expirations", requireAuth, accountHandler.ListExpirations)

		if deps.Services.Profile != nil {
			profileHandler := handlers.NewProfileHandler(deps.Services.Profile, deps.Logger)
			api.POST("/profile/password", requireAuth, profileHandler.ChangePassword)
		}
	}

	return r
}
