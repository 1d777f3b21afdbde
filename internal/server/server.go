package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral-chat/internal/config"
	"referral-chat/internal/handler"
	"referral-chat/internal/middleware"
	appredis "referral-chat/internal/redis"
	"referral-chat/internal/services"
	"referral-chat/internal/transport/httpdto"
	"referral-chat/pkg/database"
	"referral-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	db         *gorm.DB
}

type Handlers struct {
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Attachment   *handler.AttachmentHandler
}

func New(cfg *config.Config, l *logger.Logger, db *gorm.DB) *Server {
	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		db:     db,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *appredis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(s.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	// Write quotas only apply when Redis is configured.
	passthrough := func(c *gin.Context) { c.Next() }
	messageLimit, conversationLimit := passthrough, passthrough
	if limiter != nil {
		messageLimit = middleware.MessageRateLimitMiddleware(limiter)
		conversationLimit = middleware.ConversationRateLimitMiddleware(limiter)
	}

	authed := s.engine.Group("/v1", middleware.AuthMiddleware(authService))
	{
		conversations := authed.Group("/conversations")
		{
			conversations.POST("", conversationLimit, handlers.Conversation.Create)
			conversations.GET("", handlers.Conversation.List)
			conversations.GET("/unread-count", handlers.Conversation.UnreadCount)
			conversations.GET("/:id", handlers.Conversation.GetByID)
			conversations.POST("/:id/archive", handlers.Conversation.Archive)
			conversations.POST("/:id/read", handlers.Conversation.MarkAsRead)
			conversations.GET("/:id/messages", handlers.Message.List)
			conversations.POST("/:id/messages", messageLimit, handlers.Message.Send)
			conversations.POST("/:id/messages/read", handlers.Message.MarkAsRead)
		}

		messages := authed.Group("/messages")
		{
			messages.GET("/unread-count", handlers.Message.UnreadCount)
			messages.DELETE("/:id", handlers.Message.Delete)
		}

		if handlers.Attachment != nil {
			authed.POST("/attachments/presign", handlers.Attachment.Presign)
		}
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
