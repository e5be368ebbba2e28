// main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/norun9/storefront-cart/cart"
	"github.com/norun9/storefront-cart/cartstore"
	"github.com/norun9/storefront-cart/config"
	"github.com/norun9/storefront-cart/services"
)

const (
	serviceName    = "cartservice"
	serviceVersion = "v1.0.0"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, keeping %s", cfg.LogLevel, log.GetLevel())
	}

	// ----------------------------------------------------------------
	// 1) OpenTelemetry providers
	if !cfg.OTelDisabled {
		tp, err := initTracerProvider(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to initialize tracer provider: %v", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down tracer provider: %v", err)
			}
		}()

		mp, err := initMeterProvider(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to initialize meter provider: %v", err)
		}
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down meter provider: %v", err)
			}
		}()
		log.WithField("endpoint", cfg.OTLPEndpoint).Info("OpenTelemetry providers initialized")
	}

	// ----------------------------------------------------------------
	// 2) Durable store and cart manager
	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to create store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}()
	if err := store.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize %s store: %v", cfg.Store, err)
	}

	manager, err := cart.Open(ctx, store, cart.WithKey(cfg.CartKey), cart.WithLogger(log))
	if err != nil {
		log.Fatalf("failed to initialize cart manager: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := manager.Close(closeCtx); err != nil {
			log.WithError(err).Warn("pending cart writes not drained")
		}
	}()

	// ----------------------------------------------------------------
	// 3) gRPC health server
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("failed to listen on :%s: %v", cfg.GRPCPort, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthpb.RegisterHealthServer(grpcServer, services.NewHealthCheckService(store, manager, log))
	reflection.Register(grpcServer)

	// ----------------------------------------------------------------
	// 4) HTTP cart API
	cartSvc := services.NewCartService(manager, store, log)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           cartSvc.Router(serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Infof("gRPC health server listening on %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		log.Infof("HTTP cart API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal, initiating graceful shutdown...")
	case err := <-errCh:
		log.WithError(err).Error("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown")
	}
	grpcServer.GracefulStop()
}

func newStore(cfg config.Config) (cartstore.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		log.Infof("Using RedisCartStore with address %s", cfg.RedisAddr)
		return cartstore.NewRedisCartStore(cfg.RedisAddr, log), nil
	case config.StoreBunt:
		log.Infof("Using BuntCartStore at %s", cfg.BuntPath)
		return cartstore.NewBuntCartStore(cfg.BuntPath, log), nil
	case config.StoreMemory:
		log.Info("Using LocalCartStore")
		return cartstore.NewLocalCartStore(log), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
