package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/config"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/database"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/jellyfin"
	kafkainfra "github.com/hzwnrw/jellyfin-manager/internal/infra/kafka"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/logger"
	redisinfra "github.com/hzwnrw/jellyfin-manager/internal/infra/redis"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/scheduler"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/security"
	postgresrepo "github.com/hzwnrw/jellyfin-manager/internal/repository/postgres"
	redisrepo "github.com/hzwnrw/jellyfin-manager/internal/repository/redis"
	"github.com/hzwnrw/jellyfin-manager/internal/transport/http/middleware"
	"github.com/hzwnrw/jellyfin-manager/internal/transport/http/routes"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

// Application owns the wired service graph and its lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	jobs     *scheduler.Scheduler
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.TokenTTL, cfg.App.Name)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	revocations := redisrepo.NewRevocationRepository(redisClient.Client(), cfg.Redis.RevocationPrefix)
	accountCache := redisrepo.NewAccountCacheRepository(redisClient.Client(), cfg.Redis.CachePrefix, cfg.Cache.AccountTTL)
	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	gateway, err := jellyfin.NewClient(cfg.Jellyfin, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jellyfin client: %w", err)
	}

	authService, err := usecase.NewAuthService(codec, revocations, repos.AdminUsers, eventPublisher, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	accountService := usecase.NewAccountService(gateway, repos.Accounts, accountCache, repos.Expirations, eventPublisher, log)

	expirationService, err := usecase.NewExpirationService(repos.Expirations, accountService, eventPublisher, cfg.App.Timezone, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init expiration service: %w", err)
	}

	profileService := usecase.NewProfileService(repos.AdminUsers, security.DefaultPasswordValidator(), authService, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	jobs := scheduler.New(cfg.Scheduler.InitialDelay, log, prometheus.DefaultRegisterer,
		scheduler.Job{
			Name:     "expiration_reconcile",
			Interval: cfg.Scheduler.ExpirationInterval,
			Run: func(ctx context.Context) (int, error) {
				return expirationService.ProcessDue(ctx, time.Now().UTC())
			},
		},
		scheduler.Job{
			Name:     "account_sync",
			Interval: cfg.Scheduler.SyncInterval,
			Run:      accountService.Sync,
		},
	)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics,
		Database: pool,
		Cache:    redisClient,
		Services: routes.ServiceSet{
			Auth:        authService,
			Accounts:    accountService,
			Expirations: expirationService,
			Profile:     profileService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		jobs:     jobs,
	}, nil
}

// Run starts the background jobs and the HTTP server and blocks until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	a.jobs.Start(ctx)
	defer a.jobs.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting admin API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
