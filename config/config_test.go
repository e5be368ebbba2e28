package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CART_STORE", "REDIS_ADDR", "BUNT_PATH", "CART_KEY", "PORT", "HTTP_PORT",
		"LOG_LEVEL", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_DISABLED", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, Config{
		Store:           StoreMemory,
		BuntPath:        "cart.db",
		CartKey:         "cart:products",
		GRPCPort:        "7070",
		HTTPPort:        "8080",
		LogLevel:        "info",
		OTLPEndpoint:    "localhost:4317",
		ShutdownTimeout: 10 * time.Second,
	}, cfg)
}

func TestLoad_RedisAddsDefaultPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("CART_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "redis-cart")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, StoreRedis, cfg.Store)
	require.Equal(t, "redis-cart:6379", cfg.RedisAddr)
}

func TestLoad_RedisRequiresAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("CART_STORE", "redis")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"store":    {"CART_STORE", "sqlite"},
		"otel":     {"OTEL_DISABLED", "maybe"},
		"shutdown": {"SHUTDOWN_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("BUNT_PATH")
	os.Unsetenv("CART_STORE")
	t.Setenv("HTTP_PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CART_STORE=bunt\nBUNT_PATH=/data/cart.db\nHTTP_PORT=1111\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StoreBunt, cfg.Store)
	require.Equal(t, "/data/cart.db", cfg.BuntPath)
	require.Equal(t, "9090", cfg.HTTPPort)
}
