// Package config provides configuration management for the ledger engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig

	// AutoPost makes bridge-originated entries post immediately instead of
	// landing as drafts for review.
	AutoPost bool
}

// ServerConfig represents the HTTP server configuration.
type ServerConfig struct {
	Port int
}

// DBConfig represents the SQLite database configuration.
type DBConfig struct {
	Path string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	port, err := parseIntEnv("LEDGER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("LEDGER_PORT %d out of range", port)
	}

	return &Config{
		Server: ServerConfig{
			Port: port,
		},
		DB: DBConfig{
			Path: getEnvOrDefault("LEDGER_DB_PATH", "./data/ledger.db"),
		},
		AutoPost: os.Getenv("LEDGER_AUTO_POST") == "true",
	}, nil
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
