// Package handlers exposes the aggregation API over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/olegproektor/Idea-planner-agent/internal/aggregator"
	"github.com/olegproektor/Idea-planner-agent/internal/logging"
	"github.com/olegproektor/Idea-planner-agent/internal/metrics"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	agg     *aggregator.Aggregator
	metrics *metrics.Metrics
	logger  logging.Logger
}

// New creates the handler set. Metrics may be nil in tests.
func New(agg *aggregator.Aggregator, m *metrics.Metrics, logger logging.Logger) *Handlers {
	return &Handlers{agg: agg, metrics: m, logger: logger}
}

// RegisterRoutes mounts the API under /api/v1, behind bearer auth when a
// service token is configured.
func (h *Handlers) RegisterRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api/v1")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	api.GET("/search", h.Search)
	api.GET("/trends", h.Trends)
	api.DELETE("/cache", h.ClearCache)
}

// Search handles GET /api/v1/search.
func (h *Handlers) Search(c *gin.Context) {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	opts := h.agg.DefaultSearchOptions()
	opts.Sources = parseSources(c.Query("sources"))
	if raw := c.Query("use_cache"); raw != "" {
		opts.UseCache = parseBool(raw, opts.UseCache)
	}
	if raw := c.Query("fallback_to_cache"); raw != "" {
		opts.FallbackToCache = parseBool(raw, opts.FallbackToCache)
	}
	if timeout, ok := parseTimeoutSeconds(c.Query("timeout_seconds")); ok {
		opts.Timeout = timeout
	}

	start := time.Now()
	bundle, err := h.agg.Search(c.Request.Context(), query, opts)
	if err != nil {
		var timeoutErr *aggregator.TimeoutError
		if errors.As(err, &timeoutErr) {
			h.metrics.ObserveTimeout("search", time.Since(start))
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error":   timeoutErr.Error(),
				"timeout": timeoutErr.Timeout.String(),
			})
			return
		}
		h.logger.WithError(err).Error("Search aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	h.metrics.ObserveSearch(bundle, time.Since(start))
	c.JSON(http.StatusOK, bundle)
}

// Trends handles GET /api/v1/trends.
func (h *Handlers) Trends(c *gin.Context) {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	opts := h.agg.DefaultTrendOptions()
	opts.Sources = parseSources(c.Query("sources"))
	if timeout, ok := parseTimeoutSeconds(c.Query("timeout_seconds")); ok {
		opts.Timeout = timeout
	}

	start := time.Now()
	bundle, err := h.agg.Trends(c.Request.Context(), query, opts)
	if err != nil {
		var timeoutErr *aggregator.TimeoutError
		if errors.As(err, &timeoutErr) {
			h.metrics.ObserveTimeout("trends", time.Since(start))
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error":   timeoutErr.Error(),
				"timeout": timeoutErr.Timeout.String(),
			})
			return
		}
		h.logger.WithError(err).Error("Trend aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trends failed"})
		return
	}

	h.metrics.ObserveTrends(bundle, time.Since(start))
	c.JSON(http.StatusOK, bundle)
}

// ClearCache handles DELETE /api/v1/cache.
func (h *Handlers) ClearCache(c *gin.Context) {
	if err := h.agg.ClearCache(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Cache clear failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
}

func parseSources(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	sources := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			sources = append(sources, name)
		}
	}
	return sources
}

func parseBool(raw string, fallback bool) bool {
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseTimeoutSeconds(raw string) (time.Duration, bool) {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
