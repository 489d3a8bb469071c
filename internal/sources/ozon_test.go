package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOzonSearch(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "/search/?text=%D0%BD%D0%BE%D1%83%D1%82%D0%B1%D1%83%D0%BA" {
			errCh <- fmt.Errorf("unexpected composer url param %q", got)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"sku":"555","title":"Ноутбук","price":54990,"brand":"Lenovo","rating":4.8,"reviews":320,"in_stock":true},
			{"sku":"","title":"malformed entry"}
		]}`)
	}))
	defer server.Close()

	source := NewOzonSource(Settings{APIURL: server.URL})
	defer source.Close()

	products, err := source.Search(context.Background(), "ноутбук")
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
	if p.ID != "555" {
		t.Fatalf("expected id 555, got %q", p.ID)
	}
	if p.Price != 54990 {
		t.Fatalf("unexpected price %v", p.Price)
	}
	if p.URL != "https://www.ozon.ru/product/555/" {
		t.Fatalf("unexpected product url %q", p.URL)
	}
	if p.Metadata["brand"] != "Lenovo" {
		t.Fatalf("expected brand metadata, got %v", p.Metadata["brand"])
	}
	if p.Metadata["is_available"] != true {
		t.Fatalf("expected availability flag, got %v", p.Metadata["is_available"])
	}
}

func TestOzonTrendsNeutral(t *testing.T) {
	t.Parallel()

	source := NewOzonSource(Settings{})
	defer source.Close()

	trend, err := source.Trends(context.Background(), "query")
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if trend.TrendScore != 0.5 {
		t.Fatalf("expected neutral score 0.5, got %v", trend.TrendScore)
	}
}
