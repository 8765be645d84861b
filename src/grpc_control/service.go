package grpc_control

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"market-terminal/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SharedStoreService is the health service name reporting the shared tier.
const SharedStoreService = "shared-store"

const defaultCheckInterval = 15 * time.Second

// SharedStorePinger is satisfied by the cache coordinator.
type SharedStorePinger interface {
	PingShared(ctx context.Context) bool
}

// -----------------------------------------------------------------------------
// HealthService publishes grpc.health.v1. The overall status is SERVING for
// the life of the process; "shared-store" follows periodic pings.
// -----------------------------------------------------------------------------

type HealthService struct {
	Health   *health.Server
	Pinger   SharedStorePinger
	Interval time.Duration
	Logger   *logger.Logger

	mu      sync.Mutex
	lastUp  bool
	checked bool
}

// -----------------------------------------------------------------------------

func NewHealthService(pinger SharedStorePinger, interval time.Duration, log *logger.Logger) *HealthService {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(SharedStoreService, healthpb.HealthCheckResponse_UNKNOWN)

	return &HealthService{
		Health:   hs,
		Pinger:   pinger,
		Interval: interval,
		Logger:   log.Named("HealthService"),
	}
}

// -----------------------------------------------------------------------------

// CheckOnce pings the shared store and publishes the result. Transitions
// are logged; a steady state is not.
func (s *HealthService) CheckOnce(ctx context.Context) bool {
	up := s.Pinger.PingShared(ctx)

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if up {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus(SharedStoreService, status)

	s.mu.Lock()
	changed := !s.checked || s.lastUp != up
	s.checked, s.lastUp = true, up
	s.mu.Unlock()

	if changed {
		if up {
			s.Logger.Info("Shared store reachable")
		} else {
			s.Logger.Warning("Shared store unreachable, serving from local cache and upstream")
		}
	}
	return up
}

// -----------------------------------------------------------------------------

// Run checks the shared store until ctx is done.
func (s *HealthService) Run(ctx context.Context) {
	s.CheckOnce(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// Serve registers the health service on a new gRPC server and blocks until
// ctx is cancelled, then stops gracefully.
func (s *HealthService) Serve(ctx context.Context, lis net.Listener) error {
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, s.Health)

	go func() {
		<-ctx.Done()
		s.Health.Shutdown()
		grpcServer.GracefulStop()
	}()

	s.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
