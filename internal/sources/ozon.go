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
	defaultOzonURL = "https://www.ozon.ru/api/entrypoint-api.bx/page/json/v2"
	ozonSite       = "https://www.ozon.ru"
)

// OzonSource queries Ozon's composer API. Ozon is aggressive about blocking
// scrapers, so the limiter keeps a wide spacing and a per-minute cap.
type OzonSource struct {
	apiURL   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	limiter  *ratelimit.Limiter
}

// NewOzonSource creates an Ozon search client.
func NewOzonSource(cfg Settings) *OzonSource {
	apiURL := cfg.APIURL
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultOzonURL
	}
	return &OzonSource{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		executor: newExecutor(cfg.MaxRetries),
		limiter: ratelimit.New(ratelimit.Policy{
			MinInterval:  2 * time.Second,
			MaxPerWindow: 20,
			Window:       time.Minute,
		}),
	}
}

func (s *OzonSource) Name() string    { return SourceOzon }
func (s *OzonSource) BaseURL() string { return ozonSite }

type ozonResponse struct {
	Items []struct {
		SKU    string  `json:"sku"`
		Title  string  `json:"title"`
		Price  float64 `json:"price"`
		Brand  string  `json:"brand"`
		Rating float64 `json:"rating"`
		Reviews int    `json:"reviews"`
		InStock bool   `json:"in_stock"`
	} `json:"items"`
}

// Search executes a query against the Ozon search API.
func (s *OzonSource) Search(ctx context.Context, query string) ([]Product, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse ozon url: %w", err)
	}
	q := endpoint.Query()
	q.Set("url", "/search/?text="+url.QueryEscape(query))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create ozon request: %w", err)
	}
	req.Header.Set("Referer", ozonSite+"/")

	var decoded ozonResponse
	if err := doJSON(ctx, s.client, s.executor, req, &decoded); err != nil {
		return nil, fmt.Errorf("ozon search: %w", err)
	}

	products := make([]Product, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		id := strings.TrimSpace(item.SKU)
		title := strings.TrimSpace(item.Title)
		if id == "" || title == "" {
			continue
		}
		products = append(products, Product{
			ID:    id,
			Title: title,
			Price: item.Price,
			URL:   fmt.Sprintf("%s/product/%s/", ozonSite, id),
			Metadata: map[string]interface{}{
				"brand":         strings.TrimSpace(item.Brand),
				"rating":        item.Rating,
				"reviews_count": item.Reviews,
				"is_available":  item.InStock,
			},
		})
	}

	return products, nil
}

// Trends returns a neutral signal: Ozon exposes no public trends API.
func (s *OzonSource) Trends(_ context.Context, query string) (TrendData, error) {
	return NeutralTrend(query), nil
}

func (s *OzonSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
