package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/norun9/storefront-cart/cart"
	"github.com/norun9/storefront-cart/cartstore"
)

func TestHealthCheckService(t *testing.T) {
	store := cartstore.NewLocalCartStore(nullLogger())
	ctx := context.Background()

	m := cart.New(store, cart.WithLogger(nullLogger()))
	defer m.Close(ctx)
	h := NewHealthCheckService(store, m, nullLogger())

	resp, err := h.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	require.NoError(t, m.Initialize(ctx))
	resp, err = h.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestHealthCheckService_StoreDown(t *testing.T) {
	store := brokenStore{cartstore.NewLocalCartStore(nullLogger())}
	_, m := newTestService(t, store)
	h := NewHealthCheckService(store, m, nullLogger())

	resp, err := h.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
