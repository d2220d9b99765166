// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Table backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Product backends.
const (
	ProductSQLite   = "sqlite"
	ProductPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Table     TableConfig
	Products  ProductConfig
	Resolve   ResolveConfig
	Seed      SeedConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, text, or pretty; empty picks by environment
}

// TableConfig selects where the conversion table is persisted.
type TableConfig struct {
	Backend    string // sqlite, badger, or memory
	BadgerPath string
}

// ProductConfig selects where products are read from and resolved rows written to.
type ProductConfig struct {
	Backend     string // sqlite or postgres
	SQLitePath  string // shared with the sqlite table backend
	DatabaseURL string
	MaxConns    int
}

// ResolveConfig tunes batch resolution.
type ResolveConfig struct {
	ChunkSize       int
	MaxStaleRetries int
}

// SeedConfig holds the optional seed file imported by the seed command.
type SeedConfig struct {
	File string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 60s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Flags carries command-line values. Empty fields fall through to the environment.
type Flags struct {
	EnvFile        string
	Env            string
	LogLevel       string
	LogFormat      string
	SQLitePath     string
	TableBackend   string
	BadgerPath     string
	ProductBackend string
	DatabaseURL    string
	Port           string
	SeedFile       string
}

// Load builds configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(flags Flags) (*Config, error) {
	envFile := flags.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %q: %w", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.Env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(flags.LogLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(flags.LogFormat, "LOG_FORMAT", ""),
		},
		Table: TableConfig{
			Backend:    getConfigValue(flags.TableBackend, "TABLE_BACKEND", BackendSQLite),
			BadgerPath: getConfigValue(flags.BadgerPath, "TABLE_BADGER_PATH", filepath.Join("data", "table")),
		},
		Products: ProductConfig{
			Backend:     getConfigValue(flags.ProductBackend, "PRODUCT_BACKEND", ProductSQLite),
			SQLitePath:  getConfigValue(flags.SQLitePath, "SQLITE_DATABASE", filepath.Join("data", "conversion.db")),
			DatabaseURL: getConfigValue(flags.DatabaseURL, "DATABASE_URL", ""),
			MaxConns:    getIntConfigValue("", "DATABASE_MAX_CONNS", 4),
		},
		Resolve: ResolveConfig{
			ChunkSize:       getIntConfigValue("", "RESOLVE_CHUNK_SIZE", 100),
			MaxStaleRetries: getIntConfigValue("", "RESOLVE_MAX_STALE_RETRIES", 3),
		},
		Seed: SeedConfig{
			File: getConfigValue(flags.SeedFile, "SEED_FILE", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(flags.Port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "")),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloatConfigValue("", "RATE_LIMIT_RPS", 10),
			Burst: getIntConfigValue("", "RATE_LIMIT_BURST", 20),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue("SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue("SERVER_WRITE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue("SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if cfg.Products.SQLitePath, err = expandPath(cfg.Products.SQLitePath, ""); err != nil {
		return nil, fmt.Errorf("invalid sqlite path: %w", err)
	}
	if cfg.Table.BadgerPath, err = expandPath(cfg.Table.BadgerPath, ""); err != nil {
		return nil, fmt.Errorf("invalid badger path: %w", err)
	}
	if cfg.Seed.File != "" {
		if cfg.Seed.File, err = expandPath(cfg.Seed.File, ""); err != nil {
			return nil, fmt.Errorf("invalid seed path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	validFormats := map[string]bool{
		"":       true,
		"json":   true,
		"text":   true,
		"pretty": true,
	}
	if !validFormats[strings.ToLower(c.Logger.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json, text, or pretty)", c.Logger.Format)
	}

	switch c.Table.Backend {
	case BackendSQLite:
		if c.Products.SQLitePath == "" {
			return errors.New("SQLITE_DATABASE is required for the sqlite table backend")
		}
	case BackendBadger:
		if c.Table.BadgerPath == "" {
			return errors.New("TABLE_BADGER_PATH is required for the badger table backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid table backend: %s (must be sqlite, badger, or memory)", c.Table.Backend)
	}

	switch c.Products.Backend {
	case ProductSQLite:
		if c.Products.SQLitePath == "" {
			return errors.New("SQLITE_DATABASE is required for the sqlite product backend")
		}
	case ProductPostgres:
		if c.Products.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres product backend")
		}
		if c.Products.MaxConns < 1 || c.Products.MaxConns > 1000 {
			return fmt.Errorf("DATABASE_MAX_CONNS must be between 1 and 1000, got %d", c.Products.MaxConns)
		}
	default:
		return fmt.Errorf("invalid product backend: %s (must be sqlite or postgres)", c.Products.Backend)
	}

	if c.Resolve.ChunkSize <= 0 {
		return fmt.Errorf("RESOLVE_CHUNK_SIZE must be positive, got %d", c.Resolve.ChunkSize)
	}
	if c.Resolve.MaxStaleRetries < 0 {
		return fmt.Errorf("RESOLVE_MAX_STALE_RETRIES cannot be negative, got %d", c.Resolve.MaxStaleRetries)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from env var or default.
func getDurationConfigValue(envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue("", envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
