// Package sources defines the marketplace data source seam consumed by the
// aggregator, plus thin API clients for the supported Russian marketplaces
// and trend providers. Clients normalize provider payloads into Product and
// TrendData; the aggregator neither knows nor cares how a source fetches.
package sources

import "context"

// Product is a normalized product listing from one source. Immutable once
// constructed; owned by the caller after return.
type Product struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Price    float64                `json:"price"`
	URL      string                 `json:"url"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TrendPoint is one period of historical trend data.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// TrendData is a normalized trend signal for a query. Sources without native
// trend capability return NeutralTrend rather than failing: "no signal" is a
// valid answer distinct from "request failed".
type TrendData struct {
	Query      string       `json:"query"`
	TrendScore float64      `json:"trend_score"`
	Historical []TrendPoint `json:"historical_data"`
}

// NeutralTrend returns the placeholder trend signal for sources that cannot
// measure demand.
func NeutralTrend(query string) TrendData {
	return TrendData{Query: query, TrendScore: 0.5, Historical: []TrendPoint{}}
}

// Source is one external marketplace or trend provider.
type Source interface {
	// Name returns the registry name of the source (e.g. "wildberries").
	Name() string
	// BaseURL returns the canonical public URL of the provider, used in
	// quality citations.
	BaseURL() string
	// Search returns product listings matching the query.
	Search(ctx context.Context, query string) ([]Product, error)
	// Trends returns a trend signal for the query. Sources without native
	// trend data return NeutralTrend instead of an error.
	Trends(ctx context.Context, query string) (TrendData, error)
	// Close releases pooled connections. Called once by the aggregator's
	// own shutdown, not per call.
	Close() error
}
