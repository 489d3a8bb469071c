package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegproektor/Idea-planner-agent/internal/aggregator"
	"github.com/olegproektor/Idea-planner-agent/internal/cache"
	"github.com/olegproektor/Idea-planner-agent/internal/config"
	"github.com/olegproektor/Idea-planner-agent/internal/logging"
	"github.com/olegproektor/Idea-planner-agent/internal/server"
	"github.com/olegproektor/Idea-planner-agent/internal/sources"
)

type stubSource struct {
	name     string
	products []sources.Product
	delay    time.Duration
}

func (s *stubSource) Name() string    { return s.name }
func (s *stubSource) BaseURL() string { return "https://example.test/" + s.name }
func (s *stubSource) Close() error    { return nil }

func (s *stubSource) Search(ctx context.Context, query string) ([]sources.Product, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.products, nil
}

func (s *stubSource) Trends(ctx context.Context, query string) (sources.TrendData, error) {
	return sources.TrendData{Query: query, TrendScore: 0.6}, nil
}

func testRouter(t *testing.T, authToken string, srcs ...sources.Source) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		SearchTimeout:   2 * time.Second,
		TrendsTimeout:   2 * time.Second,
		MaxWorkers:      3,
		UseCache:        true,
		FallbackToCache: true,
	}
	agg := aggregator.New(cfg, srcs, cache.NewMemoryStore(time.Hour, 0), logging.NewLogger())
	t.Cleanup(func() { _ = agg.Close() })

	router := gin.New()
	h := New(agg, nil, logging.NewLogger())
	var auth gin.HandlerFunc
	if authToken != "" {
		auth = server.ServiceAuthMiddleware(authToken)
	}
	h.RegisterRoutes(router, auth)
	return router
}

func defaultSources() []sources.Source {
	return []sources.Source{
		&stubSource{name: "wildberries", products: []sources.Product{{
			ID:    "1",
			Title: "Термокружка",
			Price: 990,
			URL:   "https://example.test/product/1",
			Metadata: map[string]interface{}{
				"brand": "Acme",
			},
		}}},
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	router := testRouter(t, "", defaultSources()...)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/api/v1/search", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query parameter is required")
}

func TestSearchReturnsBundle(t *testing.T) {
	router := testRouter(t, "", defaultSources()...)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/search?query=термокружка", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var bundle aggregator.SearchBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
	assert.Equal(t, "термокружка", bundle.Query)
	assert.Equal(t, 1, bundle.Summary.TotalProducts)
	assert.Contains(t, bundle.SourceResults, "wildberries")
	assert.GreaterOrEqual(t, bundle.Quality.ConfidenceScore, 0.4)
	assert.NotEmpty(t, bundle.Quality.DisclosureMessage)
}

func TestSearchSourceSelection(t *testing.T) {
	srcs := append(defaultSources(),
		&stubSource{name: "ozon", products: []sources.Product{{
			ID: "2", Title: "Кружка", Price: 500, URL: "https://example.test/product/2",
		}}})
	router := testRouter(t, "", srcs...)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/search?query=кружка&sources=ozon", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var bundle aggregator.SearchBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
	assert.Len(t, bundle.SourceResults, 1)
	assert.Contains(t, bundle.SourceResults, "ozon")
}

func TestSearchTimeoutReturns504(t *testing.T) {
	slow := &stubSource{name: "wildberries", delay: time.Second}
	router := testRouter(t, "", slow)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/search?query=кружка&timeout_seconds=0.05", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "timed out")
}

func TestTrendsReturnsBundle(t *testing.T) {
	router := testRouter(t, "", defaultSources()...)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/trends?query=сапборд", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var bundle aggregator.TrendBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
	assert.Equal(t, 0.6, bundle.AverageScore)
	assert.Contains(t, bundle.SourceResults, "wildberries")
}

func TestClearCache(t *testing.T) {
	router := testRouter(t, "", defaultSources()...)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "DELETE", "/api/v1/cache", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cache cleared")
}

func TestServiceAuth(t *testing.T) {
	router := testRouter(t, "secret-token", defaultSources()...)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/search?query=кружка", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/search?query=кружка", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET",
		"/api/v1/search?query=кружка", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
