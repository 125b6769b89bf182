// Package config loads server configuration from the environment.
//
// A .env file in the working directory is loaded first if present; real
// environment variables always win over it. Every setting has a default, so
// an empty environment yields a working local server backed by SQLite.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/user-accounts/internal/auth"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	Port            int
	DBDriver        string
	DBPath          string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
	BcryptCost      int
	ShutdownTimeout time.Duration
}

// Load reads the configuration. Invalid values are reported as an error
// rather than silently replaced by defaults.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            8080,
		DBDriver:        getEnv("DB_DRIVER", DriverSQLite),
		DBPath:          getEnv("DB_PATH", "data/users.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", LogFormatText)),
		BcryptCost:      auth.DefaultCost,
		ShutdownTimeout: 30 * time.Second,
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("config: invalid PORT %q", raw)
		}
		cfg.Port = port
	}

	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("config: invalid BCRYPT_COST %q (want %d-%d)", raw, bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = cost
	}

	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: invalid SHUTDOWN_TIMEOUT %q", raw)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH must not be empty")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q (want %s or %s)", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	return nil
}

// SlogLevel converts LogLevel into a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
