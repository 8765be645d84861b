package main

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"market-terminal/src/grpc_control"
	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	marketdata "market-terminal/src/market_data"
	"market-terminal/src/models"
)

// -----------------------------------------------------------------------------

// startJanitor purges expired rows from SQL shared stores. Redis expires keys
// itself, so nothing runs for it.
func startJanitor(ctx context.Context, wg *sync.WaitGroup, config *models.MConfig, shared interfaces.ISharedStore, appLogger *logger.Logger) {
	expiring, ok := shared.(interfaces.IExpiringStore)
	if !ok {
		return
	}
	interval := minutes(config.SharedStore.CleanupIntervalMinutes, 10)
	janitorLogger := appLogger.Named("Janitor")

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := expiring.DeleteExpired(ctx)
				if err != nil {
					janitorLogger.Warning("Cleanup failed: %v", err)
					continue
				}
				if n > 0 {
					janitorLogger.Debug("Removed %d expired %s entries", n, shared.Name())
				}
			}
		}
	}()
}

// -----------------------------------------------------------------------------

// startHealth runs the shared store health check and, when grpc_port is set, the
// gRPC health server.
func startHealth(ctx context.Context, wg *sync.WaitGroup, config *models.MConfig, cache *marketdata.Coordinator, appLogger *logger.Logger) {
	interval := time.Duration(config.SharedStore.HealthIntervalSeconds) * time.Second
	hs := grpc_control.NewHealthService(cache, interval, appLogger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		hs.Run(ctx)
	}()

	if config.GrpcPort == 0 {
		appLogger.Info("gRPC health server disabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", config.GrpcHost, config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error("Failed to listen for gRPC on %s: %v", addr, err)
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hs.Serve(ctx, lis); err != nil {
			appLogger.Error("gRPC health server failed: %v", err)
		}
	}()
}
