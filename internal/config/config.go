package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	YouTube  YouTubeConfig
	API      APIConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Timeout  time.Duration
}

// YouTubeConfig drives the multi-key Data API client.
type YouTubeConfig struct {
	// BaseURL is the Data API v3 root. Overridden in tests.
	BaseURL string
	// DailyQuotaPerKey is the per-key daily cap in quota units. The canonical
	// free-tier allotment is 10000 units per project per day.
	DailyQuotaPerKey int
	// ValidationChannelID is the well-known channel probed when classifying
	// an unverified key. Any stable public channel works; default is the
	// Google Developers channel.
	ValidationChannelID string
	HTTPTimeout         time.Duration
}

type APIConfig struct {
	APIKey            string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	Profile          string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// PostgreSQL configuration
	cfg.Postgres.Host = getEnv("POSTGRES_HOST", "localhost")
	cfg.Postgres.Port = getEnvInt("POSTGRES_PORT", 5432)
	cfg.Postgres.User = getEnvRequired("POSTGRES_USER")
	cfg.Postgres.Password = getEnvRequired("POSTGRES_PASSWORD")
	cfg.Postgres.Database = getEnv("POSTGRES_DATABASE", "tubedash")
	cfg.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	pgTimeout, err := time.ParseDuration(getEnv("POSTGRES_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_TIMEOUT: %w", err)
	}
	cfg.Postgres.Timeout = pgTimeout

	// YouTube Data API configuration
	cfg.YouTube.BaseURL = getEnv("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3")
	cfg.YouTube.DailyQuotaPerKey = getEnvInt("YOUTUBE_DAILY_QUOTA_PER_KEY", 10000)
	cfg.YouTube.ValidationChannelID = getEnv("YOUTUBE_VALIDATION_CHANNEL_ID", "UC_x5XG1OV2P6uZZ5FSM9Ttw")
	ytTimeout, err := time.ParseDuration(getEnv("YOUTUBE_HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid YOUTUBE_HTTP_TIMEOUT: %w", err)
	}
	cfg.YouTube.HTTPTimeout = ytTimeout

	// API configuration
	cfg.API.APIKey = getEnvRequired("API_KEY")
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.API.RateLimitWindow = rateLimitWindow

	// CORS configuration
	cfg.CORS = loadCORSConfig()

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(strings.TrimSpace(value), ",")
	}
	return defaultValue
}

// loadCORSConfig loads CORS configuration based on profile or custom settings
func loadCORSConfig() CORSConfig {
	profile := getEnv("CORS_PROFILE", "custom")

	switch profile {
	case "development":
		return getDevelopmentCORSConfig()
	case "production":
		return getProductionCORSConfig()
	default:
		return getCustomCORSConfig()
	}
}

// getDevelopmentCORSConfig returns permissive CORS settings for development
func getDevelopmentCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:8080",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-API-Key",
		}),
		ExposedHeaders: getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{
			"X-Total-Count",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 86400),
		Profile:          "development",
	}
}

// getProductionCORSConfig returns secure CORS settings for production
func getProductionCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{
			"https://app.tubedash.io",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key",
		}),
		ExposedHeaders: getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{
			"X-Total-Count",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
		Profile:          "production",
	}
}

// getCustomCORSConfig returns CORS settings from individual environment variables
func getCustomCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key",
		}),
		ExposedHeaders:   getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
		Profile:          "custom",
	}
}
