package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Mindee   MindeeConfig
	Database DatabaseConfig
	Parse    ParseConfig
}

// MindeeConfig holds prediction-service configuration
type MindeeConfig struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	EnhanceUpload bool
}

// DatabaseConfig holds storage configuration
type DatabaseConfig struct {
	Driver string // "sqlite" or "pgx"
	DSN    string
}

// ParseConfig holds thresholds for the parse pipeline
type ParseConfig struct {
	LowConfidenceThreshold float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Mindee: MindeeConfig{
			APIKey:        getEnv("MINDEE_API_KEY", ""),
			BaseURL:       getEnv("MINDEE_BASE_URL", "https://api.mindee.net/v1"),
			Timeout:       getEnvAsDuration("MINDEE_TIMEOUT", 45*time.Second),
			EnhanceUpload: getEnvAsBool("MINDEE_ENHANCE_UPLOAD", false),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "expenses.db"),
		},
		Parse: ParseConfig{
			LowConfidenceThreshold: getEnvAsFloat64("PARSE_LOW_CONFIDENCE_THRESHOLD", 0.5),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Mindee.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "MINDEE_API_KEY is required", ErrInvalidInput)
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "pgx" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or pgx", ErrInvalidInput)
	}
	if c.Parse.LowConfidenceThreshold <= 0 || c.Parse.LowConfidenceThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "PARSE_LOW_CONFIDENCE_THRESHOLD must be in (0, 1]", ErrInvalidInput)
	}
	return nil
}
