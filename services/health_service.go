// services/health_service.go

package services

import (
	"context"

	"github.com/sirupsen/logrus"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/norun9/storefront-cart/cart"
	"github.com/norun9/storefront-cart/cartstore"
)

// HealthCheckService implements the gRPC health check.
type HealthCheckService struct {
	store   cartstore.Store
	manager *cart.Manager
	log     logrus.FieldLogger
	healthpb.UnimplementedHealthServer
}

// NewHealthCheckService constructor
func NewHealthCheckService(store cartstore.Store, manager *cart.Manager, log logrus.FieldLogger) *HealthCheckService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HealthCheckService{store: store, manager: manager, log: log}
}

// Check reports SERVING once the cart is loaded and the store answers a ping.
func (h *HealthCheckService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if h.manager.Ready() && h.store.Ping(ctx) {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
	}
	h.log.Warn("HealthCheckService: not serving")
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
}
