package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application. It is built once
// at startup and passed explicitly to every constructor that needs it.
type Config struct {
	Port            string
	AllowedOrigins  []string
	LogLevel        string
	Environment     string
	DatabaseURL     string
	RedisURL        string
	AccessSecret    string
	AccessTokenTTL  time.Duration
	RefreshSecret   string
	RefreshTokenTTL time.Duration
	UploadDir       string
	Media           MediaConfig
}

// MediaConfig describes the S3-compatible media host.
type MediaConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     getEnv("ENVIRONMENT", "production"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		AccessSecret:    getEnv("ACCESS_TOKEN_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshSecret:   getEnv("REFRESH_TOKEN_SECRET", ""),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 10*24*time.Hour),
		UploadDir:       getEnv("UPLOAD_DIR", os.TempDir()),
		Media: MediaConfig{
			Bucket:        getEnv("MEDIA_BUCKET", ""),
			Region:        getEnv("MEDIA_REGION", "us-east-1"),
			Endpoint:      getEnv("MEDIA_ENDPOINT", ""),
			PublicBaseURL: getEnv("MEDIA_PUBLIC_BASE_URL", ""),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv parses a duration environment variable ("15m", "240h") with a fallback
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
