// Package config collects application settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings. Loaded once at startup.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	FrontendURL string

	// ContributionFloor is the deployment-level minimum for both the
	// per-group minimum contribution and the contribution multiple,
	// in currency minor units.
	ContributionFloor int64

	// InvitationTTL is how long an invitation stays acceptable.
	InvitationTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		ContributionFloor: getEnvInt64("CONTRIBUTION_FLOOR", 10000),
		InvitationTTL:     getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
