package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"market-terminal/src/logger"
	marketdata "market-terminal/src/market_data"
	"market-terminal/src/models"
	"market-terminal/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Cache   *marketdata.Coordinator
	Markets *utils.MarketScheduler
	Now     func() time.Time

	engine  *gin.Engine
	httpSrv *http.Server
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *models.MConfig, cache *marketdata.Coordinator, markets *utils.MarketScheduler, log *logger.Logger) *FastAPIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:  cfg,
		Logger:  log.Named("HTTP"),
		Cache:   cache,
		Markets: markets,
		Now:     time.Now,
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(accessLog(s.Logger))
	s.engine.Use(corsMiddleware())

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	s.engine.GET("/", s.getRoot)
	s.engine.GET("/health", s.getHealth)

	api := s.engine.Group("/api")
	api.GET("/price/:symbol", s.getPrice)
	api.GET("/history/:symbol", s.getHistory)
	api.GET("/batch", s.getBatch)
	api.GET("/market/:symbol", s.getMarket)
	api.GET("/cache/stats", s.getCacheStats)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
}

// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for tests.
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start blocks until the server stops. A graceful Stop is not an error.
func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("Starting server on %s", addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
