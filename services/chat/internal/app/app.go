package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thriftgram/pkg/config"
	"thriftgram/pkg/jwt"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer"
	"thriftgram/pkg/middleware"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/queue"
	chatHTTP "thriftgram/services/chat/internal/controller/http"
	"thriftgram/services/chat/internal/repo/persistent"
	"thriftgram/services/chat/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "thriftgram/services/chat/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	var publisher notify.Publisher
	if redisClient != nil {
		publisher = notify.NewRedisPublisher(redisClient)
	}

	var sender mailer.Sender = mailer.NewSenderFromConfig(cfg, log)
	if queueClient != nil {
		sender = mailer.NewQueueSender(queueClient)
	}

	chatUseCase := usecase.NewChatUseCase(usecase.Deps{
		Chats:        persistent.NewChatRepository(db),
		Notifier:     notify.NewNotifier(notify.NewGormRepository(db), publisher, cfg.PushTimeout, log),
		Mailer:       sender,
		EmailTimeout: cfg.EmailTimeout,
		Logger:       log,
	})

	chatHandler := chatHTTP.NewChatHandler(chatUseCase, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 120, time.Minute))
	{
		api.GET("/conversations", chatHandler.ListConversations)
		api.POST("/conversations", chatHandler.StartConversation)
		api.GET("/conversations/:id/messages", chatHandler.Messages)
		api.POST("/messages", middleware.RateLimitMiddleware(redisClient, 30, time.Minute), chatHandler.SendMessage)
		api.PATCH("/messages/:id/read", chatHandler.MarkRead)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Chat service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down chat service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	log.Info("Chat service exited")
}
