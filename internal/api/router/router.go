package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tubedash/tubedash/internal/api/handlers"
	"github.com/tubedash/tubedash/internal/api/middleware"
	"github.com/tubedash/tubedash/internal/config"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
}

func NewRouter(cfg *config.Config, keyHandler *handlers.KeyHandler, channelHandler *handlers.ChannelHandler, movieHandler *handlers.MovieHandler, healthHandler *handlers.HealthHandler) *Router {
	// Set Gin mode
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))

	// Health endpoints (no auth required)
	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	// Swagger documentation (no auth required)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API endpoints with service-key authentication and rate limiting
	api := engine.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(&cfg.API))
	api.Use(middleware.RateLimitMiddleware(&cfg.API))
	{
		// API key settings
		keys := api.Group("/keys")
		{
			keys.PUT("", keyHandler.SetKeys)              // /api/v1/keys
			keys.GET("", keyHandler.ListKeys)             // /api/v1/keys
			keys.POST("/revalidate", keyHandler.RevalidateKeys) // /api/v1/keys/revalidate
		}
		api.GET("/quota", keyHandler.GetQuota) // /api/v1/quota

		// Channel tracking
		channels := api.Group("/channels")
		{
			channels.POST("", channelHandler.AddChannel)                       // /api/v1/channels
			channels.GET("", channelHandler.ListChannels)                      // /api/v1/channels
			channels.POST("/refresh", channelHandler.RefreshChannels)          // /api/v1/channels/refresh
			channels.DELETE("/:channel_id", channelHandler.DeleteChannel)      // /api/v1/channels/{channel_id}
			channels.GET("/:channel_id/videos", channelHandler.GetChannelVideos) // /api/v1/channels/{channel_id}/videos
		}

		// Production tasks
		movies := api.Group("/movies")
		{
			movies.POST("", movieHandler.CreateMovie)            // /api/v1/movies
			movies.GET("", movieHandler.ListMovies)              // /api/v1/movies
			movies.PUT("/:movie_id", movieHandler.UpdateMovie)   // /api/v1/movies/{movie_id}
			movies.DELETE("/:movie_id", movieHandler.DeleteMovie) // /api/v1/movies/{movie_id}
		}
	}

	return &Router{
		engine: engine,
		config: cfg,
	}
}

func (r *Router) Start() error {
	addr := fmt.Sprintf("%s:%s", r.config.Server.Host, r.config.Server.Port)
	return r.engine.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
