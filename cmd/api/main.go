package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/cleanup"
	"io.winapps.sitefollowup/internal/db"
	"io.winapps.sitefollowup/internal/handlers"
	"io.winapps.sitefollowup/internal/imaging"
	"io.winapps.sitefollowup/internal/ingest"
	"io.winapps.sitefollowup/internal/middleware"
	"io.winapps.sitefollowup/internal/report"
	"io.winapps.sitefollowup/internal/repository"
	"io.winapps.sitefollowup/internal/storage"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	// Initialize PostgreSQL
	postgresDB, err := db.InitPostgres()
	if err != nil {
		logger.Fatalw("Failed to initialize PostgreSQL", "error", err)
	}
	defer postgresDB.Close()

	// Initialize Redis
	redisClient, err := db.InitRedis()
	if err != nil {
		logger.Fatalw("Failed to initialize Redis", "error", err)
	}
	defer redisClient.Close()

	// Initialize object storage; refusing to start beats a nil client
	// every handler would have to check
	store, err := storage.NewFromEnv()
	if err != nil {
		logger.Fatalw("Failed to initialize object storage", "error", err)
	}

	repo := repository.NewStore(postgresDB)

	imgOpts := imaging.DefaultOptions()
	if v := os.Getenv("IMAGE_MAX_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			imgOpts.MaxDimension = n
		}
	}
	if v := os.Getenv("IMAGE_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			imgOpts.Quality = n
		}
	}
	imgOpts.Background = imaging.ParseBackground(os.Getenv("IMAGE_BACKGROUND"))

	// Exactly one dispatch mode is wired per deployment: forward to the
	// workflow processor when its URL is configured, else persist directly
	var dispatcher ingest.Dispatcher
	if webhookURL := os.Getenv("WORKFLOW_WEBHOOK_URL"); webhookURL != "" {
		logger.Infow("dispatching submissions to workflow processor", "url", webhookURL)
		dispatcher = ingest.NewWebhookDispatcher(webhookURL, logger)
	} else {
		logger.Infow("no workflow webhook configured, persisting entries directly")
		dispatcher = ingest.NewDirectDispatcher(repo, os.Getenv("NOTIFY_WEBHOOK_URL"), logger)
	}

	pipeline := ingest.NewPipeline(store, dispatcher, imgOpts, logger)
	builder := report.NewBuilder(repo, store, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.BodyLimitMiddleware(maxBodyBytes()))

	// Add CORS middleware for the mobile web client
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize handlers
	namesHandler := handlers.NewNamesHandler(repo, redisClient, logger)
	entriesHandler := handlers.NewEntriesHandler(repo, store, pipeline, redisClient, logger)
	exportHandler := handlers.NewExportHandler(builder, logger)

	// Define routes
	api := router.Group("/api")
	{
		names := api.Group("/names")
		{
			names.GET("", namesHandler.ListNames)
			names.POST("", namesHandler.CreateName)
			names.PUT("/:id", namesHandler.UpdateName)
			names.DELETE("/:id", namesHandler.DeleteName)
		}

		entries := api.Group("/entries")
		{
			entries.GET("", entriesHandler.ListEntries)
			entries.POST("", entriesHandler.CreateEntry)
			entries.DELETE("/:id", entriesHandler.DeleteEntry)
		}

		api.GET("/export", exportHandler.Export)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Nightly sweep of storage objects orphaned by aborted submissions
	sweeper := cleanup.NewSweeper(repo, store, logger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@daily", sweeper.Run); err != nil {
		logger.Fatalw("Failed to schedule orphan sweep", "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create HTTP server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Infow("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infow("shutting down server")

	// Give a 5 second timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("Server forced to shutdown", "error", err)
	}

	logger.Infow("server exited")
}

func maxBodyBytes() int64 {
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return middleware.DefaultMaxBodyBytes
}
