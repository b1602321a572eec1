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
	"thriftgram/pkg/payment"
	"thriftgram/pkg/queue"
	orderHTTP "thriftgram/services/order/internal/controller/http"
	"thriftgram/services/order/internal/repo/persistent"
	"thriftgram/services/order/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "thriftgram/services/order/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	queueClient *queue.Client
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithConfig(cfg.LogLevel, cfg.LogFormat).With("service", "order")

	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		log.Warn("Stripe keys are not configured, checkout and webhooks will fail")
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (webhook events will not be deduplicated before the database)", err)
		redisClient = nil
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
		queueClient: queueClient,
	}, nil
}

func (a *App) Run() error {
	jwtService := jwt.NewService(a.cfg.JWTSecret)

	var publisher notify.Publisher
	var events usecase.EventLog
	if a.redisClient != nil {
		publisher = notify.NewRedisPublisher(a.redisClient)
		events = cache.NewStore(a.redisClient)
	}

	var sender mailer.Sender = mailer.NewSenderFromConfig(a.cfg, a.log)
	if a.queueClient != nil {
		sender = mailer.NewQueueSender(a.queueClient)
	}

	orderUseCase := usecase.NewOrderUseCase(usecase.Deps{
		Orders:       persistent.NewOrderRepository(a.db),
		Gateway:      payment.NewStripeGateway(a.cfg.StripeSecretKey, a.cfg.StripeWebhookSecret, a.cfg.PaymentTimeout),
		Ledger:       eco.NewLedger(eco.NewGormRepository(a.db), a.log),
		Notifier:     notify.NewNotifier(notify.NewGormRepository(a.db), publisher, a.cfg.PushTimeout, a.log),
		Mailer:       sender,
		Events:       events,
		FrontendURL:  a.cfg.FrontendURL,
		EmailTimeout: a.cfg.EmailTimeout,
		Logger:       a.log,
	})

	orderHandler := orderHTTP.NewOrderHandler(orderUseCase, a.log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{a.cfg.FrontendURL, "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		// Signed by the payment processor, not by a user token.
		api.POST("/webhook", orderHandler.Webhook)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		{
			protected.POST("/checkout", middleware.RateLimitMiddleware(a.redisClient, 10, time.Minute), orderHandler.Checkout)
			protected.GET("/orders", orderHandler.ListOrders)
			protected.GET("/orders/:id", orderHandler.GetOrder)
			protected.PATCH("/orders/:id", orderHandler.UpdateOrder)
		}
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	go func() {
		a.log.Info("Order service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down order service...")
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

	a.log.Info("Order service exited")
	return nil
}
