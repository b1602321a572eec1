package main

import (
	"thriftgram/pkg/cache"
	"thriftgram/pkg/config"
	"thriftgram/pkg/database"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/queue"
	chatApp "thriftgram/services/chat/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title           Chat Service API
// @version         1.0
// @description     Buyer and seller conversations for the ThriftGram marketplace

// @host      localhost:8004
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == config.DefaultJWTSecret || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat).With("service", "chat")

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (continuing without push and rate limits)", err)
		redisClient = nil
	}

	// Message emails go through the notification service when the queue is up
	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("Failed to connect to RabbitMQ: %v (emails will be sent directly)", err)
		queueClient = nil
	}

	chatApp.Run(cfg, log, db, redisClient, queueClient)
}
