// Package metrics defines the service's aggregation metric set.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/olegproektor/Idea-planner-agent/internal/aggregator"
	"github.com/olegproektor/Idea-planner-agent/internal/monitoring"
)

// Metrics holds the aggregation-specific instruments. HTTP-level metrics
// live on the collector itself.
type Metrics struct {
	SourceFetches     *prometheus.CounterVec
	AggregateDuration *prometheus.HistogramVec
	ProductsReturned  *prometheus.HistogramVec
	Confidence        prometheus.Observer
}

// New registers the aggregation metrics on the given collector.
func New(collector *monitoring.MetricsCollector) *Metrics {
	confidence := collector.NewHistogram(
		"search_confidence_score",
		"Confidence score of returned search bundles",
		[]string{"grade"},
		[]float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
	)

	return &Metrics{
		SourceFetches: collector.NewCounter(
			"source_fetches_total",
			"Per-source fetch outcomes",
			[]string{"source", "outcome"},
		),
		AggregateDuration: collector.NewHistogram(
			"aggregation_duration_seconds",
			"Wall-clock duration of aggregation calls",
			[]string{"operation"},
			nil,
		),
		ProductsReturned: collector.NewHistogram(
			"products_returned",
			"Products returned per search bundle",
			[]string{"operation"},
			[]float64{0, 1, 5, 10, 25, 50, 100, 250},
		),
		Confidence: confidenceObserver{confidence},
	}
}

// confidenceObserver labels confidence observations with the letter grade.
type confidenceObserver struct {
	histogram *prometheus.HistogramVec
}

func (o confidenceObserver) Observe(v float64) {
	o.histogram.WithLabelValues(gradeLabel(v)).Observe(v)
}

func gradeLabel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "A"
	case confidence >= 0.7:
		return "B"
	case confidence >= 0.6:
		return "C"
	case confidence >= 0.5:
		return "D"
	default:
		return "F"
	}
}

// ObserveSearch records one completed search bundle.
func (m *Metrics) ObserveSearch(bundle *aggregator.SearchBundle, elapsed time.Duration) {
	if m == nil || bundle == nil {
		return
	}
	for name, res := range bundle.SourceResults {
		m.SourceFetches.WithLabelValues(name, fetchOutcome(res)).Inc()
	}
	m.AggregateDuration.WithLabelValues("search").Observe(elapsed.Seconds())
	m.ProductsReturned.WithLabelValues("search").Observe(float64(len(bundle.Products)))
	m.Confidence.Observe(bundle.Quality.ConfidenceScore)
}

// ObserveTrends records one completed trends bundle.
func (m *Metrics) ObserveTrends(bundle *aggregator.TrendBundle, elapsed time.Duration) {
	if m == nil || bundle == nil {
		return
	}
	for name, res := range bundle.SourceResults {
		outcome := "success"
		if res.Error != "" {
			outcome = "error"
		}
		m.SourceFetches.WithLabelValues(name, outcome).Inc()
	}
	m.AggregateDuration.WithLabelValues("trends").Observe(elapsed.Seconds())
}

// ObserveTimeout records an aggregation call that hit the deadline.
func (m *Metrics) ObserveTimeout(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AggregateDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func fetchOutcome(res aggregator.SourceResult) string {
	switch {
	case res.Error != "":
		return "error"
	case res.Fallback:
		return "fallback"
	case res.CacheHit:
		return "cache_hit"
	default:
		return "success"
	}
}
