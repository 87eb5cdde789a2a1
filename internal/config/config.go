package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis cache configuration
	Redis RedisConfig

	// CORS configuration
	CORS CORSConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Booking policy configuration
	Booking BookingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// RedisConfig holds Redis cache configuration. An empty address disables
// caching entirely.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// PaymentConfig holds SSLCommerz configuration
type PaymentConfig struct {
	Environment   string // "sandbox" or "production"
	StoreID       string // SSLCommerz store id
	StorePassword string // SSLCommerz store password (SECRET - never expose to client)
	Currency      string // ISO currency code sent to the gateway
	ServerBaseURL string // public base URL the gateway calls back on
	ClientBaseURL string // frontend base URL the user is redirected to
}

// BookingConfig holds booking policy configuration
type BookingConfig struct {
	CancellationWindow time.Duration // window around the tour date in which a confirmed booking may be deleted
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("REDIS_TTL_SECONDS", 120)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Payment: PaymentConfig{
			Environment:   getEnv("SSLCOMMERZ_ENVIRONMENT", "sandbox"),
			StoreID:       getEnv("SSLCOMMERZ_STORE_ID", ""),
			StorePassword: getEnv("SSLCOMMERZ_STORE_PASSWORD", ""),
			Currency:      getEnv("SSLCOMMERZ_CURRENCY", "BDT"),
			ServerBaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ClientBaseURL: getEnv("CLIENT_BASE_URL", "http://localhost:3000"),
		},
		Booking: BookingConfig{
			CancellationWindow: time.Duration(getEnvAsInt("BOOKING_CANCELLATION_WINDOW_HOURS", 48)) * time.Hour,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Payment.StoreID == "" {
		return fmt.Errorf("SSLCOMMERZ_STORE_ID is required")
	}

	if c.Payment.StorePassword == "" {
		return fmt.Errorf("SSLCOMMERZ_STORE_PASSWORD is required")
	}

	if c.Payment.Environment != "sandbox" && c.Payment.Environment != "production" {
		return fmt.Errorf("invalid SSLCommerz environment: %s (must be 'sandbox' or 'production')", c.Payment.Environment)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
