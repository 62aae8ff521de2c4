package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/salonbook-backend/config"
	"github.com/ikkim/salonbook-backend/internal/app/controller"
	"github.com/ikkim/salonbook-backend/internal/app/repository"
	"github.com/ikkim/salonbook-backend/internal/app/service"
	"github.com/ikkim/salonbook-backend/internal/db"
	"github.com/ikkim/salonbook-backend/internal/middleware"
	"github.com/ikkim/salonbook-backend/internal/router"
	"github.com/ikkim/salonbook-backend/internal/storage"
	"github.com/ikkim/salonbook-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting Salonbook Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Log.Level,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	sqlDB, err := db.GetDB().DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", err)
	}

	// Services and sessions
	businessService := service.NewBusinessService()
	newSession := repository.NewSessionFactory(db.GetDB())

	// Logo uploads are optional; the API runs without them when S3 is not configured
	var uploadController *controller.UploadController
	s3Storage, err := storage.NewS3Storage(
		context.Background(),
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)
	if err != nil {
		logger.Warn("S3 storage unavailable, logo uploads disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		uploadController = controller.NewUploadController(s3Storage, businessService, newSession, cfg.Upload.MaxSize)
	}

	// Initialize controllers
	businessController := controller.NewBusinessController(businessService, newSession)

	// Setup router
	r := router.NewRouter(
		businessController,
		uploadController,
		middleware.BusinessContext(businessService, newSession),
		sqlDB,
		cfg,
	)
	engine, err := r.Setup()
	if err != nil {
		logger.Fatal("Failed to set up router", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...", map[string]interface{}{
		"timeout": cfg.Server.ShutdownTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
		return
	}

	logger.Info("Server stopped successfully")
}
