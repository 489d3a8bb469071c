package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/olegproektor/Idea-planner-agent/internal/aggregator"
	"github.com/olegproektor/Idea-planner-agent/internal/cache"
	"github.com/olegproektor/Idea-planner-agent/internal/config"
	"github.com/olegproektor/Idea-planner-agent/internal/handlers"
	"github.com/olegproektor/Idea-planner-agent/internal/logging"
	"github.com/olegproektor/Idea-planner-agent/internal/metrics"
	"github.com/olegproektor/Idea-planner-agent/internal/monitoring"
	"github.com/olegproektor/Idea-planner-agent/internal/server"
	"github.com/olegproektor/Idea-planner-agent/internal/sources"
	"github.com/olegproektor/Idea-planner-agent/internal/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("spyglass")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Spyglass (Market Data Aggregation API)")

	cfg := config.LoadConfig()

	// Build the source registry from the configured source list
	srcs := make([]sources.Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		src, err := sources.New(name, sources.Settings{
			APIURL:      cfg.SourceURL(name),
			HTTPTimeout: cfg.SourceHTTPTimeout,
			MaxRetries:  cfg.MaxRetries,
		})
		if err != nil {
			logger.WithField("source", name).WithError(err).Warn("Skipping unsupported source")
			continue
		}
		srcs = append(srcs, src)
	}
	if len(srcs) == 0 {
		logger.Fatal("No usable market data sources configured")
	}

	// Setup the cache backend
	store, err := cache.NewStore(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize cache backend")
	}

	agg := aggregator.New(cfg, srcs, store, logger)
	defer func() { _ = agg.Close() }()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("spyglass", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("spyglass", version.Version, version.GitCommit)
	serviceMetrics := metrics.New(metricsCollector)

	healthChecker.AddCheck("sources", monitoring.SourceRegistryHealthCheck(agg.SourceNames))
	var cachePinger monitoring.Pinger
	if redisStore, ok := store.(*cache.RedisStore); ok {
		cachePinger = redisStore
	}
	healthChecker.AddCheck("cache", monitoring.CacheBackendHealthCheck(cfg.CacheBackend, cachePinger))

	// Setup HTTP server
	router := server.SetupServiceRouter(logger, "spyglass", healthChecker, metricsCollector)

	var auth gin.HandlerFunc
	if cfg.ServiceToken != "" {
		auth = server.ServiceAuthMiddleware(cfg.ServiceToken)
	} else {
		logger.Warn("SERVICE_TOKEN not set - API endpoints are unauthenticated")
	}

	h := handlers.New(agg, serviceMetrics, logger)
	h.RegisterRoutes(router, auth)

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetInfo())
	})

	serverConfig := server.DefaultConfig("spyglass", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
