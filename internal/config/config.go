// Package config provides application configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	Port string
	Host string

	// Database settings
	DBPath string

	// Logging
	LogLevel string

	// Demo mode seeds a demo user and uses static prices.
	DemoMode bool

	// Environment
	IsDevelopment bool
}

// New creates a new Config with values from environment variables or defaults.
// A .env file in the working directory is loaded first, if present.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Host:          getEnv("HOST", "localhost"),
		DBPath:        getEnv("DB_PATH", filepath.Join("data", "portfolio.db")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DemoMode:      getEnv("DEMO_MODE", "") == "true",
		IsDevelopment: getEnv("ENV", "development") == "development",
	}
}

// Address returns the full address to bind the server to.
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
