package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thriftgram/pkg/analysis"
	"thriftgram/pkg/config"
	"thriftgram/pkg/eco"
	"thriftgram/pkg/jwt"
	"thriftgram/pkg/logger"
	"thriftgram/pkg/middleware"
	"thriftgram/pkg/notify"
	"thriftgram/pkg/s3"
	itemHTTP "thriftgram/services/item/internal/controller/http"
	"thriftgram/services/item/internal/repo/persistent"
	"thriftgram/services/item/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "thriftgram/services/item/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, s3Client *s3.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	var publisher notify.Publisher
	if redisClient != nil {
		publisher = notify.NewRedisPublisher(redisClient)
	}

	var analyzer analysis.Analyzer
	if cfg.AnalysisServiceURL != "" {
		analyzer = analysis.NewHTTPAnalyzer(cfg.AnalysisServiceURL, cfg.AnalysisTimeout)
	} else {
		log.Warn("ANALYSIS_SERVICE_URL not set, items will be marked unverified")
	}

	itemUseCase := usecase.NewItemUseCase(usecase.Deps{
		Items:           persistent.NewItemRepository(db),
		Reviews:         persistent.NewReviewRepository(db),
		Wishlists:       persistent.NewWishlistRepository(db),
		Storage:         s3Client,
		Ledger:          eco.NewLedger(eco.NewGormRepository(db), log),
		Notifier:        notify.NewNotifier(notify.NewGormRepository(db), publisher, cfg.PushTimeout, log),
		Analyzer:        analyzer,
		AnalysisTimeout: cfg.AnalysisTimeout,
		Logger:          log,
	})

	itemHandler := itemHTTP.NewItemHandler(itemUseCase, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.SecurityHeaders())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	public := api.Group("")
	public.Use(middleware.OptionalAuth(jwtService))
	{
		public.GET("/items", itemHandler.ListItems)
		public.GET("/items/:id", itemHandler.GetItem)
		public.GET("/items/:id/reviews", itemHandler.ListReviews)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	{
		protected.POST("/items", itemHandler.CreateItem)
		protected.PUT("/items/:id", itemHandler.UpdateItem)
		protected.DELETE("/items/:id", itemHandler.DeleteItem)
		protected.POST("/items/:id/analyze", middleware.RateLimitMiddleware(redisClient, 10, time.Minute), itemHandler.AnalyzeItem)
		protected.POST("/items/:id/like", itemHandler.LikeItem)
		protected.DELETE("/items/:id/like", itemHandler.UnlikeItem)

		protected.GET("/wishlist", itemHandler.Wishlist)
		protected.POST("/wishlist", itemHandler.AddToWishlist)
		protected.DELETE("/wishlist/:item_id", itemHandler.RemoveFromWishlist)

		protected.POST("/reviews", itemHandler.CreateReview)
		protected.PUT("/reviews/:id", itemHandler.UpdateReview)
		protected.DELETE("/reviews/:id", itemHandler.DeleteReview)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Item service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down item service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
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

	log.Info("Item service exited")
}
