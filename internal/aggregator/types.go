package aggregator

import (
	"fmt"
	"time"

	"github.com/olegproektor/Idea-planner-agent/internal/quality"
	"github.com/olegproektor/Idea-planner-agent/internal/sources"
)

// TimeoutError is the one failure mode that aborts a whole aggregation call.
// It carries the deadline that was exceeded so callers can report it.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("aggregation timed out after %s", e.Timeout)
}

// SearchOptions tunes one Search call. Zero-valued fields do NOT mean
// defaults; start from DefaultSearchOptions and override.
type SearchOptions struct {
	Sources         []string
	UseCache        bool
	FallbackToCache bool
	Timeout         time.Duration
}

// TrendOptions tunes one Trends call.
type TrendOptions struct {
	Sources []string
	Timeout time.Duration
}

// SourceError tags a fetch failure with the source it came from.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"error"`
}

// SourceResult is the per-source detail retained in a bundle. Failed
// sources appear with an Error and no products.
type SourceResult struct {
	Source    string            `json:"source"`
	Products  []sources.Product `json:"products"`
	Count     int               `json:"count"`
	CacheHit  bool              `json:"cache_hit"`
	Fallback  bool              `json:"fallback,omitempty"`
	FetchedAt time.Time         `json:"fetched_at,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// BrandCount is one entry of the brand distribution.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

// Summary holds the derived statistics over the flat product list.
type Summary struct {
	TotalProducts     int          `json:"total_products"`
	UniqueProducts    int          `json:"unique_products"`
	AveragePrice      float64      `json:"average_price"`
	MinPrice          float64      `json:"min_price"`
	MaxPrice          float64      `json:"max_price"`
	PriceRange        string       `json:"price_range"`
	SourcesRequested  int          `json:"sources_requested"`
	SuccessfulSources int          `json:"successful_sources"`
	FailedSources     int          `json:"failed_sources"`
	ErrorRate         float64      `json:"error_rate"`
	TopBrands         []BrandCount `json:"top_brands"`
	BrandDiversity    int          `json:"brand_diversity"`
	ExecutionSeconds  float64      `json:"execution_time_seconds"`
}

// SearchBundle is the output of one Search call. Products keeps every
// returned listing, duplicates included; UniqueProducts in the summary
// counts distinct ids without removing anything.
type SearchBundle struct {
	Query         string                  `json:"query"`
	Products      []sources.Product       `json:"all_products"`
	Summary       Summary                 `json:"summary"`
	SourceResults map[string]SourceResult `json:"source_results"`
	Errors        []SourceError           `json:"errors"`
	Quality       quality.Report          `json:"data_quality"`
	Timestamp     time.Time               `json:"timestamp"`
}

// TrendResult is the per-source detail of one Trends call.
type TrendResult struct {
	Source string            `json:"source"`
	Trend  sources.TrendData `json:"trend,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// TrendBundle is the output of one Trends call.
type TrendBundle struct {
	Query         string                 `json:"query"`
	AverageScore  float64                `json:"average_trend_score"`
	SourceResults map[string]TrendResult `json:"source_results"`
	Errors        []SourceError          `json:"errors"`
	Timestamp     time.Time              `json:"timestamp"`
}
