// Package main provides the entry point for the TubeDash service.
// @title TubeDash API
// @version 1.0
// @description Backend for a YouTube channel statistics dashboard: tracked channels, production tasks and a quota-aware multi-key Data API client.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key authentication

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tubedash/tubedash/docs" // Import for swagger docs
	"github.com/tubedash/tubedash/internal/api/handlers"
	"github.com/tubedash/tubedash/internal/api/router"
	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/database"
	"github.com/tubedash/tubedash/internal/models"
	"github.com/tubedash/tubedash/internal/services/tracker"
	"github.com/tubedash/tubedash/internal/services/youtube"
	"github.com/tubedash/tubedash/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting TubeDash service")

	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Postgres)
	if err != nil {
		logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	// Initialize the multi-key YouTube client and rehydrate its pool
	ytClient := youtube.NewClient(&cfg.YouTube)
	ytClient.SetUsageSink(db)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.Postgres.Timeout)
	keys, err := db.ListAPIKeys(startupCtx)
	startupCancel()
	if err != nil {
		logger.Errorf("Failed to load API keys: %v", err)
		logger.Info("Starting with an empty key pool - add keys via the settings endpoint")
	} else {
		ytClient.LoadKeys(keys)
		logger.Infof("Loaded %d API key(s) from settings", len(keys))
	}

	ytClient.OnQuotaChanged(func(usage models.QuotaUsage) {
		logger.WithField("session", usage.Session).WithField("daily", usage.Daily).Debug("Quota updated")
	})

	// Persist validation outcomes as they arrive so a restart keeps statuses
	ytClient.OnKeyValidated(func(value string, check youtube.KeyCheck) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Postgres.Timeout)
		defer cancel()
		if err := db.UpdateAPIKeyStatus(ctx, value, check.Status, check.Error); err != nil {
			logger.Warnf("Failed to persist key status: %v", err)
		}
	})
	ytClient.KickValidation(context.Background())

	// Initialize services and handlers
	trackerService := tracker.NewService(db, ytClient)

	keyHandler := handlers.NewKeyHandler(db, ytClient)
	channelHandler := handlers.NewChannelHandler(trackerService)
	movieHandler := handlers.NewMovieHandler(db)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize router
	r := router.NewRouter(cfg, keyHandler, channelHandler, movieHandler, healthHandler)

	// Start server
	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Close(ctx); err != nil {
		logger.Errorf("Failed to close database connection: %v", err)
	}

	logger.Info("Server shutdown complete")
}
