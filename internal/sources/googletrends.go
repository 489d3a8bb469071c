package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/olegproektor/Idea-planner-agent/internal/ratelimit"
)

const (
	defaultGoogleTrendsURL = "https://trends.google.com/trends/api/widgetdata/multiline"
	googleTrendsSite       = "https://trends.google.com"
)

// GoogleTrendsSource provides demand trend signals. It carries no product
// catalog: Search returns an empty list, which the aggregator treats as a
// valid zero-result outcome rather than a failure.
type GoogleTrendsSource struct {
	apiURL   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	limiter  *ratelimit.Limiter
}

// NewGoogleTrendsSource creates a Google Trends client.
func NewGoogleTrendsSource(cfg Settings) *GoogleTrendsSource {
	apiURL := cfg.APIURL
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultGoogleTrendsURL
	}
	return &GoogleTrendsSource{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		executor: newExecutor(cfg.MaxRetries),
		limiter: ratelimit.New(ratelimit.Policy{
			MinInterval:  2 * time.Second,
			MaxPerWindow: 100,
			Window:       time.Hour,
		}),
	}
}

func (s *GoogleTrendsSource) Name() string    { return SourceGoogleTrends }
func (s *GoogleTrendsSource) BaseURL() string { return googleTrendsSite }

// Search returns no products; trends is the only capability this source has.
func (s *GoogleTrendsSource) Search(_ context.Context, _ string) ([]Product, error) {
	return []Product{}, nil
}

type googleTrendsResponse struct {
	Default struct {
		TimelineData []struct {
			FormattedTime string `json:"formattedTime"`
			Value         []int  `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// Trends fetches interest-over-time data and normalizes it to a 0..1 score
// (mean interest over peak interest). An empty series yields the neutral 0.5.
func (s *GoogleTrendsSource) Trends(ctx context.Context, query string) (TrendData, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return TrendData{}, err
	}

	endpoint, err := url.Parse(s.apiURL)
	if err != nil {
		return TrendData{}, fmt.Errorf("parse google trends url: %w", err)
	}
	q := endpoint.Query()
	q.Set("hl", "ru-RU")
	q.Set("tz", "-180")
	q.Set("q", query)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return TrendData{}, fmt.Errorf("create google trends request: %w", err)
	}

	var decoded googleTrendsResponse
	if err := doJSON(ctx, s.client, s.executor, req, &decoded); err != nil {
		return TrendData{}, fmt.Errorf("google trends: %w", err)
	}

	points := decoded.Default.TimelineData
	if len(points) == 0 {
		return NeutralTrend(query), nil
	}

	historical := make([]TrendPoint, 0, len(points))
	var sum, max float64
	for _, point := range points {
		var value float64
		if len(point.Value) > 0 {
			value = float64(point.Value[0])
		}
		sum += value
		if value > max {
			max = value
		}
		historical = append(historical, TrendPoint{Period: point.FormattedTime, Value: value})
	}

	score := 0.0
	if max > 0 {
		score = sum / float64(len(points)) / max
		if score > 1.0 {
			score = 1.0
		}
	}

	return TrendData{Query: query, TrendScore: score, Historical: historical}, nil
}

func (s *GoogleTrendsSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
