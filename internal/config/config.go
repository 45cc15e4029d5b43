package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// GitHub search caps a single page at 100 items.
const MaxPageSize = 100

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken string
	GraphQLURL  string

	// Collection
	TargetCount    int
	PageSize       int
	MinStars       int
	PaceEveryPages int
	PaceDelay      time.Duration

	// Output
	OutputPath string

	// Optional DB mirror: "none", "sqlite" or "postgres"
	StorageType string
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		GraphQLURL:     getEnv("GITHUB_GRAPHQL_URL", "https://api.github.com/graphql"),
		TargetCount:    getEnvInt("TARGET_COUNT", 100),
		PageSize:       getEnvInt("PAGE_SIZE", 25),
		MinStars:       getEnvInt("MIN_STARS", 1000),
		PaceEveryPages: getEnvInt("PACE_EVERY_PAGES", 5),
		PaceDelay:      time.Duration(getEnvInt("PACE_DELAY_MS", 2000)) * time.Millisecond,
		OutputPath:     getEnv("OUTPUT_PATH", "repositories_data.csv"),
		StorageType:    getEnv("STORAGE_TYPE", "none"),
		SQLitePath:     getEnv("SQLITE_PATH", "./repositories.db"),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "localhost"),
		APIEndpoint:    getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if c.TargetCount <= 0 {
		return &ConfigError{Field: "TARGET_COUNT", Message: "must be greater than zero"}
	}
	if c.PageSize <= 0 || c.PageSize > MaxPageSize {
		return &ConfigError{Field: "PAGE_SIZE", Message: "must be between 1 and 100"}
	}
	if c.MinStars < 0 {
		return &ConfigError{Field: "MIN_STARS", Message: "must not be negative"}
	}
	if c.StorageType != "none" && c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'none', 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
