package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL         string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration

	// Clerk Auth
	ClerkSecretKey string

	// S3
	S3Bucket       string
	S3Region       string
	AWSEndpoint    string // For LocalStack in development
	MaxUploadBytes int64

	// Reconciliation defaults for drafts created without settings
	ReconDateToleranceDays  int
	ReconAmountTolerance    string
	ReconMatchByDescription bool

	// Feature Flags
	EnableRateLimiting bool
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                    getEnvInt("PORT", 8080),
		Environment:             getEnv("ENVIRONMENT", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:         getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		DBMaxConnections:        getEnvInt("DB_MAX_CONNECTIONS", 25),
		DBConnectionTimeout:     getEnvDuration("DB_CONNECTION_TIMEOUT", 30*time.Second),
		ClerkSecretKey:          getEnv("CLERK_SECRET_KEY", ""),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		S3Region:                getEnv("S3_REGION", "ap-south-1"),
		AWSEndpoint:             getEnv("AWS_ENDPOINT", ""),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		ReconDateToleranceDays:  getEnvInt("RECON_DATE_TOLERANCE_DAYS", 3),
		ReconAmountTolerance:    getEnv("RECON_AMOUNT_TOLERANCE", string(models.AmountToleranceExact)),
		ReconMatchByDescription: getEnvBool("RECON_MATCH_BY_DESCRIPTION", true),
		EnableRateLimiting:      getEnvBool("ENABLE_RATE_LIMITING", false),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ClerkSecretKey == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("CLERK_SECRET_KEY is required in production")
	}
	if cfg.S3Bucket == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("S3_BUCKET is required in production")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.ReconDateToleranceDays < 0 {
		return nil, fmt.Errorf("RECON_DATE_TOLERANCE_DAYS must not be negative")
	}
	switch models.AmountTolerance(cfg.ReconAmountTolerance) {
	case models.AmountToleranceExact, models.AmountToleranceCents, models.AmountTolerancePercent:
	default:
		return nil, fmt.Errorf("RECON_AMOUNT_TOLERANCE must be one of exact, cents, percent")
	}

	return cfg, nil
}

// ReconciliationDefaults returns the engine settings used when a request carries none.
func (c *Config) ReconciliationDefaults() models.ReconciliationSettings {
	settings := models.DefaultSettings()
	settings.DateTolerance = c.ReconDateToleranceDays
	settings.AmountTolerance = models.AmountTolerance(c.ReconAmountTolerance)
	settings.MatchByDescription = c.ReconMatchByDescription
	return settings
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
