package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/cache"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/config"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/database"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/handlers"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/services"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Travel Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Optional Redis cache for the review aggregation
	var reviewCache services.ReviewCache
	if redisCache := cache.NewRedisCache(cfg.Redis); redisCache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithError(err).Warn("Redis unreachable, running without review cache")
		} else {
			reviewCache = redisCache
			logger.Info("Review cache connected")
		}
		cancel()
	} else {
		logger.Info("No Redis address configured, running without review cache")
	}

	// Initialize repositories
	bookingRepo := database.NewBookingRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	tourRepo := database.NewTourRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db, logger)

	// Initialize services
	logger.Info("Initializing services...")
	gatewayService := services.NewSSLCommerzService(&cfg.Payment, logger)
	if !gatewayService.IsConfigured() {
		logger.Fatal("SSLCommerz store credentials are not configured")
	}

	bookingService := services.NewBookingService(bookingRepo, gatewayService, auditRepo, services.BookingServiceConfig{
		ServerBaseURL:      cfg.Payment.ServerBaseURL,
		CancellationWindow: cfg.Booking.CancellationWindow,
	}, logger)
	reviewService := services.NewReviewService(reviewRepo, tourRepo, reviewCache, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, cfg.Payment.ClientBaseURL, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API routes
	api := router.Group("/api")
	{
		booking := api.Group("/booking")
		{
			booking.POST("/initiate", bookingHandler.Initiate)

			// Gateway callbacks. The transaction id rides in the URL so the
			// callbacks stay correlatable even when the gateway trims the body.
			booking.POST("/success/:trid", bookingHandler.PaymentSuccess)
			booking.POST("/fail/:trid", bookingHandler.PaymentFail)
			booking.POST("/cancel/:trid", bookingHandler.PaymentCancel)
			booking.POST("/ipn", bookingHandler.PaymentIPN)

			booking.GET("", bookingHandler.GetAll)
			booking.GET("/details", bookingHandler.GetDetails)
			booking.GET("/user/:userId", bookingHandler.GetByUser)
			booking.GET("/:id", bookingHandler.GetByID)
			booking.GET("/:id/audit", bookingHandler.GetAuditTrail)
			booking.DELETE("/:id", bookingHandler.Delete)
		}

		api.GET("/invoice/:id", bookingHandler.GetInvoice)

		review := api.Group("/review")
		{
			review.GET("/latest-five-star", reviewHandler.LatestFiveStar)
			review.POST("/:tourId", reviewHandler.Create)
			review.DELETE("/:id", reviewHandler.Delete)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		entry := logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		})

		if len(c.Errors) > 0 {
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
