// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the runtime configuration for the API service.
type Config struct {
	ListenAddr    string
	DatabaseDSN   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	LogLevel      string
	// AdminAddresses is the allow-list of addresses permitted to change fee
	// rates and list tokens.
	AdminAddresses []string
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found")
	}

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		SQLitePath:    getEnv("SQLITE_PATH", "amm.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("ADMIN_ADDRESSES"); raw != "" {
		for _, addr := range strings.Split(raw, ",") {
			addr = strings.TrimSpace(addr)
			if addr != "" {
				cfg.AdminAddresses = append(cfg.AdminAddresses, addr)
			}
		}
	}

	return cfg
}

// ParseLogLevel maps the configured level onto a logrus level, defaulting to
// info for unknown values.
func (c *Config) ParseLogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
