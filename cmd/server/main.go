package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"user-management-backend/internal/common/cache"
	"user-management-backend/internal/common/config"
	"user-management-backend/internal/common/logger"
	authredis "user-management-backend/internal/features/auth/repository/redis"
	authservice "user-management-backend/internal/features/auth/service"
	"user-management-backend/internal/features/auth/token"
	"user-management-backend/internal/features/notification/publisher"
	notifservice "user-management-backend/internal/features/notification/service"
	"user-management-backend/internal/features/user/repository"
	"user-management-backend/internal/features/user/repository/memory"
	userpostgres "user-management-backend/internal/features/user/repository/postgres"
	usercache "user-management-backend/internal/features/user/repository/redis"
	userservice "user-management-backend/internal/features/user/service"
	apphttp "user-management-backend/internal/http"
	"user-management-backend/internal/platform/mail"
	"user-management-backend/internal/platform/postgres"
	"user-management-backend/internal/platform/redis"
	"user-management-backend/internal/platform/telegram"
	"user-management-backend/internal/workers"
)

// @title           User Management API
// @version         1.0
// @description     User accounts, authentication and role-based administration.

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer access token issued by /login

// @tag.name auth
// @tag.description Registration, login and email verification

// @tag.name users
// @tag.description Profile and staff user management

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init("user-management-backend", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Str("storage", cfg.Storage.Driver).Msg("Starting User Management Backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]apphttp.HealthChecker{}

	var userRepository repository.UserRepository
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn().Msg("Using in-memory user storage, data is lost on restart")
		userRepository = memory.NewMemoryRepository()
	default:
		pg, err := postgres.NewClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pg.Close()

		if cfg.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx, postgres.MigrateUp); err != nil {
				logger.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		}

		userRepository = userpostgres.NewPostgresRepository(pg.Pool())
		checks["postgres"] = pg
	}

	rdb, err := redis.OpenFromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	checks["redis"] = rdb

	cacheService := cache.NewCacheService(rdb.Client)
	events := publisher.NewStreamPublisher(rdb.Client)

	userSvc := userservice.NewUserService(
		userRepository,
		usercache.NewUserCache(cacheService, cfg.Redis.UserCacheTTL),
		events,
		userservice.Options{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			BcryptCost:       cfg.Auth.BcryptCost,
			ServerBaseURL:    cfg.Server.BaseURL,
		},
	)

	authSvc := authservice.NewAuthService(
		userSvc,
		token.NewService(cfg.Auth.JWTSecret, cfg.AccessTokenTTL()),
		authredis.NewRevocationStore(cacheService),
		authservice.TelegramOptions{BotToken: cfg.Telegram.BotToken, InitDataTTL: cfg.Telegram.InitDataTTL},
	)

	logger.Info().Msg("Services initialized")

	if cfg.Notifications.Enabled {
		worker, err := newNotificationWorker(cfg, rdb)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize notification worker")
		}
		go worker.Start(ctx)
	}

	router := apphttp.NewRouter(apphttp.Deps{
		Config:       cfg,
		Users:        userSvc,
		Auth:         authSvc,
		HealthChecks: checks,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func newNotificationWorker(cfg *config.Config, rdb *redis.Client) (*workers.RedisStreamWorker, error) {
	renderer, err := notifservice.NewRenderer()
	if err != nil {
		return nil, err
	}

	var mailer notifservice.Mailer
	if mc, err := mail.NewClient(cfg); err != nil {
		logger.Warn().Err(err).Msg("Email notifications disabled")
	} else {
		mailer = mc
	}

	var tg notifservice.TelegramSender
	if cfg.Telegram.BotToken != "" {
		tg = telegram.NewClient(cfg.Telegram.BotToken,
			telegram.WithHTTPClient(&http.Client{Timeout: cfg.Telegram.Timeout}))
	}

	dispatcher := notifservice.NewDispatcher(renderer, mailer, tg)
	return workers.NewRedisStreamWorker(rdb.Client, dispatcher, cfg.Notifications.Consumer), nil
}
