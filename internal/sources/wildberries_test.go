package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWildberriesSearch(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			errCh <- fmt.Errorf("expected GET, got %s", r.Method)
			return
		}
		if got := r.URL.Query().Get("query"); got != "чехол iphone" {
			errCh <- fmt.Errorf("expected query param, got %q", got)
			return
		}
		if got := r.URL.Query().Get("resultset"); got != "catalog" {
			errCh <- fmt.Errorf("expected resultset catalog, got %q", got)
			return
		}

		var resp wildberriesResponse
		resp.Data.Products = []struct {
			ID         int64   `json:"id"`
			Name       string  `json:"name"`
			Brand      string  `json:"brand"`
			PriceU     int64   `json:"priceU"`
			SalePriceU int64   `json:"salePriceU"`
			Rating     float64 `json:"rating"`
			Feedbacks  int     `json:"feedbacks"`
			Volume     int     `json:"volume"`
			Selling    bool    `json:"selling"`
		}{
			{ID: 12345, Name: "Чехол для iPhone", Brand: "Acme", PriceU: 150000, SalePriceU: 99900, Rating: 4.7, Feedbacks: 215, Volume: 1200, Selling: true},
			{ID: 0, Name: "malformed entry"},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			errCh <- fmt.Errorf("encode response: %w", err)
			return
		}
	}))
	defer server.Close()

	source := NewWildberriesSource(Settings{APIURL: server.URL})
	defer source.Close()

	products, err := source.Search(context.Background(), "чехол iphone")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("handler error: %v", err)
	default:
	}

	if len(products) != 1 {
		t.Fatalf("expected malformed entry skipped, got %d products", len(products))
	}
	p := products[0]
	if p.ID != "12345" {
		t.Fatalf("expected id 12345, got %q", p.ID)
	}
	if p.Price != 999.00 {
		t.Fatalf("expected kopecks normalized to rubles, got %v", p.Price)
	}
	if p.URL != "https://www.wildberries.ru/catalog/12345/detail.aspx" {
		t.Fatalf("unexpected product url %q", p.URL)
	}
	if p.Metadata["brand"] != "Acme" {
		t.Fatalf("expected brand metadata, got %v", p.Metadata["brand"])
	}
}

func TestWildberriesSearchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	source := NewWildberriesSource(Settings{APIURL: server.URL, MaxRetries: 0})
	defer source.Close()

	if _, err := source.Search(context.Background(), "query"); err == nil {
		t.Fatalf("expected error on 403 response")
	}
}

func TestWildberriesTrendsNeutral(t *testing.T) {
	t.Parallel()

	source := NewWildberriesSource(Settings{})
	defer source.Close()

	trend, err := source.Trends(context.Background(), "query")
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if trend.TrendScore != 0.5 {
		t.Fatalf("expected neutral score 0.5, got %v", trend.TrendScore)
	}
	if len(trend.Historical) != 0 {
		t.Fatalf("expected empty history, got %d points", len(trend.Historical))
	}
}
