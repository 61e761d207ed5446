package main

import (
	"context"
	"log"
	"time"

	"truthgate-api/config"
	"truthgate-api/internal/events"
	"truthgate-api/internal/gateway"
	"truthgate-api/internal/handler"
	"truthgate-api/internal/jobs"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/redis"
	"truthgate-api/internal/repository"
	"truthgate-api/internal/server"
	"truthgate-api/internal/services"
	"truthgate-api/internal/websocket"
	"truthgate-api/pkg/database"
	"truthgate-api/pkg/logger"

	"go.uber.org/zap"
)

const (
	presenceTTL    = 90 * time.Second
	webhookLockTTL = 30 * time.Second
)

func main() {
	cfg := config.LoadConfig()

	appLogger := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(appLogger)
	defer func() { _ = appLogger.Logger.Sync() }()

	database.Connect(cfg)
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := database.DB
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	settingsService := services.NewSettingsService(repository.NewSettingsRepository(db))
	if err := settingsService.Initialize(ctx); err != nil {
		log.Fatalf("Failed to load site settings: %v", err)
	}

	m := metrics.New()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	authService := services.NewAuthService(userRepo, cfg)
	gw := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey, cfg.GatewayTimeout)
	donationService := services.NewDonationService(
		repository.NewDonationRepository(db),
		repository.NewWebhookEventRepository(db),
		gw,
		settingsService,
		services.DonationConfig{
			SecretKey:   cfg.GatewaySecretKey,
			Currency:    cfg.GatewayCurrency,
			CallbackURL: cfg.GatewayCallbackURL,
		},
		appLogger,
	).WithMetrics(m)

	var broadcaster events.Broadcaster = websocket.NewLocalBroadcaster(hub)
	var (
		presence *redis.PresenceStore
		limiter  *redis.RateLimiter
	)
	if cfg.RedisEnabled {
		client := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := redis.Ping(ctx, client); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}

		broadcaster = websocket.NewRedisBroadcaster(redis.NewPublisher(client))
		bridge := websocket.NewRedisBridge(redis.NewSubscriber(client), hub)
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				appLogger.Logger.Error("redis bridge stopped", zap.Error(err))
			}
		}()

		presence = redis.NewPresenceStore(client, presenceTTL)
		limiter = redis.NewRateLimiter(client, redis.RateLimitConfig{
			MessageLimit:  cfg.MessageRateLimit,
			MessageWindow: cfg.MessageRateWindow,
		})
		donationService.WithLocker(redis.NewLocker(client, webhookLockTTL))
		appLogger.Infof("Redis enabled at %s:%s", cfg.RedisHost, cfg.RedisPort)
	}

	counselService := services.NewCounselService(conversationRepo, messageRepo, userRepo, broadcaster, appLogger).WithMetrics(m)
	socketHandler := websocket.NewHandler(authService, counselService, hub, appLogger).WithMetrics(m)
	deps := server.Dependencies{Auth: authService, Metrics: m}
	// assigned only when set so the interfaces stay nil without redis
	if presence != nil {
		counselService.WithPresence(presence)
		socketHandler.WithPresence(presence)
	}
	if limiter != nil {
		socketHandler.WithLimiter(limiter)
		deps.Limiter = limiter
	}

	sweeper := jobs.NewRetentionSweeper(conversationRepo, cfg.RetentionSweepInterval, m, appLogger)
	sweeper.Start(ctx)

	srv := server.New(cfg, appLogger)
	srv.SetupRoutes(&server.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Donation: handler.NewDonationHandler(donationService),
		Webhook:  handler.NewWebhookHandler(donationService),
		Settings: handler.NewSettingsHandler(settingsService),
		Counsel:  handler.NewCounselHandler(counselService),
		Socket:   socketHandler,
	}, deps)

	if err := srv.Start(); err != nil {
		appLogger.Errorf("Server shutdown error: %v", err)
	}
}
