package main

import (
	"context"
	"log"

	"referral-chat/internal/config"
	"referral-chat/internal/handler"
	"referral-chat/internal/proxy"
	appredis "referral-chat/internal/redis"
	"referral-chat/internal/repository"
	"referral-chat/internal/server"
	"referral-chat/internal/services"
	"referral-chat/internal/storage"
	"referral-chat/pkg/database"
	"referral-chat/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		l.Errorf("Failed to connect to database: %s", err)
		log.Fatal(err)
	}

	var unreadCache *appredis.UnreadCache
	var limiter *appredis.RateLimiter
	if cfg.Redis.Enabled {
		client, err := appredis.NewClient(cfg.Redis)
		if err != nil {
			l.Warnf("Redis unavailable, unread caching and rate limiting disabled: %s", err)
		} else {
			unreadCache = appredis.NewUnreadCache(client, appredis.DefaultUnreadCacheConfig())
			limiter = appredis.NewRateLimiter(client, appredis.DefaultRateLimitConfig())
		}
	}

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	access := proxy.NewAccessControl(convRepo)

	convService := services.NewConversationService(db, convRepo, unreadCache, l)
	msgService := services.NewMessageService(db, msgRepo, convRepo, access, unreadCache, l, cfg.Chat)
	authService := services.NewAuthService(cfg.Auth)

	handlers := &server.Handlers{
		Conversation: handler.NewConversationHandler(convService),
		Message:      handler.NewMessageHandler(msgService, convService),
	}

	if cfg.S3.Bucket != "" {
		store, err := storage.NewClient(context.Background(), cfg.S3)
		if err != nil {
			l.Warnf("S3 unavailable, attachment presigning disabled: %s", err)
		} else {
			handlers.Attachment = handler.NewAttachmentHandler(services.NewAttachmentService(store))
		}
	}

	srv := server.New(cfg, l, db)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		l.Errorf("Server shutdown failed: %s", err)
	}
}
