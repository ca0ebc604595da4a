package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer    string // Issuer claim for access tokens (default: quizme-admin)
	JWTSecret string // Required in prod: HS256 signing secret (min 32 bytes)

	DatabaseFile         string        // Path to SQLite database file (default: ./quizme.db)
	PepperFile           string        // Path to pepper file for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-token cleanup interval (default: 1h)

	AccessTokenTTL  time.Duration // Access token lifetime (default: 24h)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 168h)
}

func LoadConfig() Config {
	return Config{
		Issuer:               getEnvOrDefault("QUIZME_ISSUER", "quizme-admin"),
		JWTSecret:            os.Getenv("QUIZME_JWT_SECRET"),
		DatabaseFile:         getEnvOrDefault("QUIZME_DATABASE_FILE", "quizme.db"),
		PepperFile:           getEnvOrDefault("QUIZME_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AccessTokenTTL:       getEnvDurationOrDefault("QUIZME_ACCESS_TOKEN_TTL", 0),
		RefreshTokenTTL:      getEnvDurationOrDefault("QUIZME_REFRESH_TOKEN_TTL", 0),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
