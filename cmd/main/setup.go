package main

import (
	"time"

	"market-terminal/src/data_source/yahoo"
	"market-terminal/src/interfaces"
	"market-terminal/src/logger"
	marketdata "market-terminal/src/market_data"
	"market-terminal/src/models"
	"market-terminal/src/network"
	"market-terminal/src/storage"
)

// -----------------------------------------------------------------------------

// setupSharedStore picks the shared cache backend from config
func setupSharedStore(config *models.MConfig, appLogger *logger.Logger) interfaces.ISharedStore {
	shared := storage.OpenSharedStore(config.SharedStore, appLogger)
	appLogger.Info("Shared store backend: %s", shared.Name())
	return shared
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig, appLogger *logger.Logger) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(config, appLogger.Named("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupUpstream initializes the market data provider
func setupUpstream(config *models.MConfig, networkManager interfaces.INetworkManager, appLogger *logger.Logger) interfaces.IUpstreamFetcher {
	if config.DataSource.Name != "yahoo" {
		appLogger.Warning("Unknown data source '%s', using yahoo", config.DataSource.Name)
	}
	return yahoo.NewYahooFinanceSource(config, networkManager, appLogger)
}

// -----------------------------------------------------------------------------

// setupCoordinator wires the three cache tiers together
func setupCoordinator(config *models.MConfig, shared interfaces.ISharedStore, upstream interfaces.IUpstreamFetcher, appLogger *logger.Logger) *marketdata.Coordinator {
	timeout := storage.SharedTimeout(config.SharedStore)
	appLogger.Info("Cache windows: price %s/%s, history %s/%s, shared timeout %s",
		models.PriceLocalWindow, models.PriceSharedWindow,
		models.HistoryLocalWindow, models.HistorySharedWindow, timeout)
	return marketdata.NewCoordinator(storage.NewLocalStore(), shared, upstream, timeout, appLogger)
}

// -----------------------------------------------------------------------------

func minutes(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Minute
}
