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
	defaultYandexMarketURL = "https://market.yandex.ru/api/search"
	yandexMarketSite       = "https://market.yandex.ru"
)

// YandexMarketSource queries the Yandex Market search API.
type YandexMarketSource struct {
	apiURL   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	limiter  *ratelimit.Limiter
}

// NewYandexMarketSource creates a Yandex Market search client.
func NewYandexMarketSource(cfg Settings) *YandexMarketSource {
	apiURL := cfg.APIURL
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultYandexMarketURL
	}
	return &YandexMarketSource{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		executor: newExecutor(cfg.MaxRetries),
		limiter: ratelimit.New(ratelimit.Policy{
			MinInterval:  1500 * time.Millisecond,
			MaxPerWindow: 30,
			Window:       time.Minute,
		}),
	}
}

func (s *YandexMarketSource) Name() string    { return SourceYandexMarket }
func (s *YandexMarketSource) BaseURL() string { return yandexMarketSite }

type yandexMarketResponse struct {
	Results []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Vendor string `json:"vendor"`
		Slug   string `json:"slug"`
		Price  struct {
			Value float64 `json:"value"`
		} `json:"price"`
		Rating       float64 `json:"rating"`
		OpinionCount int     `json:"opinionCount"`
	} `json:"results"`
}

// Search executes a query against the Yandex Market search API.
func (s *YandexMarketSource) Search(ctx context.Context, query string) ([]Product, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse yandex market url: %w", err)
	}
	q := endpoint.Query()
	q.Set("text", query)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create yandex market request: %w", err)
	}
	req.Header.Set("Referer", yandexMarketSite+"/")

	var decoded yandexMarketResponse
	if err := doJSON(ctx, s.client, s.executor, req, &decoded); err != nil {
		return nil, fmt.Errorf("yandex market search: %w", err)
	}

	products := make([]Product, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		id := strings.TrimSpace(item.ID)
		title := strings.TrimSpace(item.Name)
		if id == "" || title == "" {
			continue
		}
		slug := item.Slug
		if slug == "" {
			slug = id
		}
		products = append(products, Product{
			ID:    id,
			Title: title,
			Price: item.Price.Value,
			URL:   fmt.Sprintf("%s/product/%s", yandexMarketSite, slug),
			Metadata: map[string]interface{}{
				"brand":         strings.TrimSpace(item.Vendor),
				"rating":        item.Rating,
				"reviews_count": item.OpinionCount,
			},
		})
	}

	return products, nil
}

// Trends returns a neutral signal; Wordstat access requires an OAuth grant
// the service does not carry.
func (s *YandexMarketSource) Trends(_ context.Context, query string) (TrendData, error) {
	return NeutralTrend(query), nil
}

func (s *YandexMarketSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
