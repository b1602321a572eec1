package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thriftgram/pkg/cache"
	"thriftgram/pkg/config"
	"thriftgram/pkg/database"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/jwt"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/mailer"
	"thriftgram/pkg/middleware"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/queue"
	"thriftgram/pkg/s3"
	authHTTP "thriftgram/services/auth/internal/controller/http"
	"thriftgram/services/auth/internal/repo/persistent"
	"thriftgram/services/auth/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "thriftgram/services/auth/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	jwtService  *jwt.Service
	queueClient *queue.Client
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat).With("service", "auth")

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		// Redis only backs rate limits, the leaderboard cache and push
		log.Warn("Failed to connect to redis: %v (continuing without cache)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("Failed to connect to RabbitMQ: %v (emails will be sent directly)", err)
		queueClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwt.NewService(cfg.JWTSecret).WithTTL(cfg.JWTTTL),
		queueClient: queueClient,
	}, nil
}

func (a *App) Run() error {
	userRepo := persistent.NewUserRepository(a.db)

	var publisher notify.Publisher
	var leaderboardCache usecase.Cache
	if a.redisClient != nil {
		publisher = notify.NewRedisPublisher(a.redisClient)
		leaderboardCache = cache.NewStore(a.redisClient)
	}

	var sender mailer.Sender = mailer.NewSenderFromConfig(a.cfg, a.log)
	if a.queueClient != nil {
		sender = mailer.NewQueueSender(a.queueClient)
	}

	authUseCase := usecase.NewAuthUseCase(usecase.Deps{
		Users:        userRepo,
		JWT:          a.jwtService,
		Storage:      a.s3Client,
		Ledger:       eco.NewLedger(eco.NewGormRepository(a.db), a.log),
		Notifier:     notify.NewNotifier(notify.NewGormRepository(a.db), publisher, a.cfg.PushTimeout, a.log),
		Mailer:       sender,
		Cache:        leaderboardCache,
		EmailTimeout: a.cfg.EmailTimeout,
		Logger:       a.log,
	})

	authHandler := authHTTP.NewAuthHandler(authUseCase, a.log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{a.cfg.FrontendURL, "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authRequired := middleware.AuthMiddleware(a.jwtService)
	optionalAuth := middleware.OptionalAuth(a.jwtService)

	api := r.Group("/api/v1")
	{
		api.POST("/register", middleware.RateLimitMiddleware(a.redisClient, 3, time.Hour), authHandler.Register)
		api.POST("/login", middleware.RateLimitMiddleware(a.redisClient, 5, time.Minute), authHandler.Login)

		api.GET("/leaderboard", authHandler.Leaderboard)
		api.GET("/users/:id", optionalAuth, authHandler.GetUser)
		api.GET("/users/:id/followers", authHandler.Followers)
		api.GET("/users/:id/following", authHandler.Following)
		api.GET("/users/:id/eco-history", authHandler.EcoHistory)

		protected := api.Group("")
		protected.Use(authRequired)
		{
			protected.GET("/me", authHandler.Me)
			protected.PATCH("/me", authHandler.UpdateMe)
			protected.POST("/me/avatar", authHandler.UploadAvatar)
			protected.GET("/me/dashboard", authHandler.Dashboard)
			protected.GET("/eco-points-history", authHandler.MyEcoHistory)
			protected.POST("/users/:id/follow", middleware.RateLimitMiddleware(a.redisClient, 60, time.Minute), authHandler.Follow)
			protected.DELETE("/users/:id/follow", authHandler.Unfollow)
		}
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	go func() {
		a.log.Info("Auth service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down auth service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	a.log.Info("Auth service exited")
	return nil
}
