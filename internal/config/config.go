package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	// Directory for JSON profile files, used when no database is configured.
	ProfileDir string
	TuningFile string
	SessionTTL time.Duration
	// Minimum gap between two surfaced recommendations.
	RecommendationCooldown time.Duration
}

func Load() Config {
	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		ProfileDir:             os.Getenv("PROFILE_DIR"),
		TuningFile:             os.Getenv("TUNING_FILE"),
		SessionTTL:             time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		RecommendationCooldown: time.Duration(getEnvInt("RECOMMENDATION_COOLDOWN_SECONDS", 300)) * time.Second,
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}
	return fallback
}
