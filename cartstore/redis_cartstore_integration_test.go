//go:build integration

package cartstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	return addr, func() { container.Terminate(ctx) }
}

func TestRedisCartStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	addr, cleanup := setupRedisContainer(t)
	defer cleanup()

	store := NewRedisCartStore(addr, nullLogger())
	defer store.Close()
	exerciseStore(t, store)
}

func TestRedisCartStore_InitializeHonoursContext(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	store := NewRedisCartStore("127.0.0.1:1", nullLogger())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, store.Initialize(ctx), context.DeadlineExceeded)
}
