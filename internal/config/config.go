package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	// Storage
	StorageDriver string
	DatabaseURL   string
	QueryTimeout  time.Duration

	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	// Seed bootstrap
	SeedEnabled bool
	SeedFile    string

	// Change notifications
	NotifyConfigPath   string
	NotifyRetryMax     int
	NotifyRetryBackoff time.Duration
	NotifyRPCTimeout   time.Duration

	CORSAllowedOrigins []string
	ICSProdID          string
}

func Load() Config {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StorageDriver:       getEnv("STORAGE_DRIVER", DriverPostgres),
		QueryTimeout:        getEnvDuration("QUERY_TIMEOUT", 5*time.Second),
		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),
		SeedEnabled:         getEnvBool("SEED_ENABLED", true),
		SeedFile:            getEnv("SEED_FILE", ""),
		NotifyConfigPath:    getEnv("NOTIFY_CONFIG_PATH", ""),
		NotifyRetryMax:      getEnvInt("NOTIFY_RETRY_MAX", 3),
		NotifyRetryBackoff:  getEnvDuration("NOTIFY_RETRY_BACKOFF", 100*time.Millisecond),
		NotifyRPCTimeout:    getEnvDuration("NOTIFY_RPC_TIMEOUT", 5*time.Second),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
		ICSProdID:           getEnv("ICS_PRODID", "-//rollcall//calendar export//EN"),
	}
	if cfg.StorageDriver == DriverPostgres {
		cfg.DatabaseURL = getEnvRequired("DATABASE_URL")
	}
	return cfg
}

// LoadEnvFile populates the environment from a dotenv file. Variables that are
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func getEnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("required environment variable " + key + " is not set")
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
