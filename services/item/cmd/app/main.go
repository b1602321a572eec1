package main

import (
	"thriftgram/pkg/cache"
	"thriftgram/pkg/config"
	"thriftgram/pkg/database"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/s3"
	itemApp "thriftgram/services/item/internal/app"

	"github.com/gin-gonic/gin"
)

// @title           Item Service API
// @version         1.0
// @description     Listings, likes, wishlists and reviews for the ThriftGram marketplace

// @host      localhost:8002
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == config.DefaultJWTSecret || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat).With("service", "item")

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

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	itemApp.Run(cfg, log, db, redisClient, s3Client)
}
