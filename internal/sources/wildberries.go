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
	defaultWildberriesURL = "https://search.wb.ru/exactmatch/ru/common/v4/search"
	wildberriesSite       = "https://www.wildberries.ru"
)

// WildberriesSource queries the Wildberries public search API. Prices arrive
// in kopecks and are normalized to rubles. The API tolerates roughly one
// request per second before returning 429s, hence the strict limiter.
type WildberriesSource struct {
	apiURL   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	limiter  *ratelimit.Limiter
}

// NewWildberriesSource creates a Wildberries search client.
func NewWildberriesSource(cfg Settings) *WildberriesSource {
	apiURL := cfg.APIURL
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultWildberriesURL
	}
	return &WildberriesSource{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		executor: newExecutor(cfg.MaxRetries),
		limiter:  ratelimit.New(ratelimit.Policy{MinInterval: time.Second}),
	}
}

func (s *WildberriesSource) Name() string    { return SourceWildberries }
func (s *WildberriesSource) BaseURL() string { return wildberriesSite }

type wildberriesResponse struct {
	Data struct {
		Products []struct {
			ID         int64   `json:"id"`
			Name       string  `json:"name"`
			Brand      string  `json:"brand"`
			PriceU     int64   `json:"priceU"`
			SalePriceU int64   `json:"salePriceU"`
			Rating     float64 `json:"rating"`
			Feedbacks  int     `json:"feedbacks"`
			Volume     int     `json:"volume"`
			Selling    bool    `json:"selling"`
		} `json:"products"`
	} `json:"data"`
}

// Search executes a query against the Wildberries public search API.
func (s *WildberriesSource) Search(ctx context.Context, query string) ([]Product, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse wildberries url: %w", err)
	}
	q := endpoint.Query()
	q.Set("query", query)
	q.Set("resultset", "catalog")
	q.Set("limit", "100")
	q.Set("sort", "popular")
	q.Set("curr", "rub")
	q.Set("dest", "-1216603") // Moscow region
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create wildberries request: %w", err)
	}
	req.Header.Set("Referer", wildberriesSite+"/")

	var decoded wildberriesResponse
	if err := doJSON(ctx, s.client, s.executor, req, &decoded); err != nil {
		return nil, fmt.Errorf("wildberries search: %w", err)
	}

	products := make([]Product, 0, len(decoded.Data.Products))
	for _, item := range decoded.Data.Products {
		title := strings.TrimSpace(item.Name)
		if item.ID == 0 || title == "" {
			continue
		}
		id := fmt.Sprintf("%d", item.ID)
		products = append(products, Product{
			ID:    id,
			Title: title,
			Price: float64(item.SalePriceU) / 100,
			URL:   fmt.Sprintf("%s/catalog/%s/detail.aspx", wildberriesSite, id),
			Metadata: map[string]interface{}{
				"brand":         strings.TrimSpace(item.Brand),
				"old_price":     float64(item.PriceU) / 100,
				"rating":        item.Rating,
				"reviews_count": item.Feedbacks,
				"sales_count":   item.Volume,
				"is_available":  item.Selling,
			},
		})
	}

	return products, nil
}

// Trends returns a neutral signal: Wildberries has no public trends API.
func (s *WildberriesSource) Trends(_ context.Context, query string) (TrendData, error) {
	return NeutralTrend(query), nil
}

func (s *WildberriesSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
