// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"

	"github.com/norun9/storefront-cart/cartstore"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBunt   = "bunt"
)

// Config holds every setting of the service.
type Config struct {
	Store     string
	RedisAddr string
	BuntPath  string
	CartKey   string

	GRPCPort string
	HTTPPort string

	LogLevel        string
	OTLPEndpoint    string
	OTelDisabled    bool
	ShutdownTimeout time.Duration
}

// Load reads the environment, after applying an optional .env file from the working directory.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := gotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Store:        strings.ToLower(getenv("CART_STORE", StoreMemory)),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		BuntPath:     getenv("BUNT_PATH", "cart.db"),
		CartKey:      getenv("CART_KEY", cartstore.DefaultKey),
		GRPCPort:     getenv("PORT", "7070"),
		HTTPPort:     getenv("HTTP_PORT", "8080"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	if v := os.Getenv("OTEL_DISABLED"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("OTEL_DISABLED: %w", err)
		}
		cfg.OTelDisabled = disabled
	}

	cfg.ShutdownTimeout = 10 * time.Second
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	switch cfg.Store {
	case StoreMemory, StoreBunt:
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return Config{}, errors.New("REDIS_ADDR environment variable is required for the redis store")
		}
		// Append the default port only when none is given.
		if !strings.Contains(cfg.RedisAddr, ":") {
			cfg.RedisAddr += ":6379"
		}
	default:
		return Config{}, fmt.Errorf("unknown CART_STORE %q", cfg.Store)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
