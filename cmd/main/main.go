package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"market-terminal/src/config"
	"market-terminal/src/logger"
	"market-terminal/src/server"
	"market-terminal/src/utils"
)

const shutdownTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name)

	// 4. Setup Components
	shared := setupSharedStore(conf.MConfig, appLogger)
	defer shared.Close()

	networkManager := setupNetwork(conf.MConfig, appLogger)
	upstream := setupUpstream(conf.MConfig, networkManager, appLogger)
	cache := setupCoordinator(conf.MConfig, shared, upstream, appLogger)

	srv := server.NewFastAPIServer(conf.MConfig, cache, utils.NewMarketScheduler(appLogger.Named("MarketScheduler")), appLogger)

	// 5. Background workers and servers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := &sync.WaitGroup{}
	startJanitor(ctx, wg, conf.MConfig, shared, appLogger)
	startHealth(ctx, wg, conf.MConfig, cache, appLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	case <-quit:
		appLogger.Info("Shutting down...")
	}

	// 6. Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown: %v", err)
	}

	cancel()
	wg.Wait()
	appLogger.Info("Stopped.")
}
