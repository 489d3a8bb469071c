package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/olegproektor/Idea-planner-agent/internal/sources"
)

const topBrandLimit = 5

// buildSummary derives the order-independent statistics over the flat
// product list. Empty input yields zeros, never NaN.
func buildSummary(products []sources.Product, requested, succeeded, failed int, elapsed time.Duration) Summary {
	summary := Summary{
		TotalProducts:     len(products),
		SourcesRequested:  requested,
		SuccessfulSources: succeeded,
		FailedSources:     failed,
		PriceRange:        "0 - 0",
		TopBrands:         []BrandCount{},
		ExecutionSeconds:  elapsed.Seconds(),
	}
	if requested > 0 {
		summary.ErrorRate = float64(failed) / float64(requested)
	}
	if len(products) == 0 {
		return summary
	}

	ids := make(map[string]struct{}, len(products))
	brands := make(map[string]int)
	var sum float64
	min, max := products[0].Price, products[0].Price
	for _, p := range products {
		if p.ID != "" {
			ids[p.ID] = struct{}{}
		}
		sum += p.Price
		if p.Price < min {
			min = p.Price
		}
		if p.Price > max {
			max = p.Price
		}
		brands[brandOf(p)]++
	}

	summary.UniqueProducts = len(ids)
	summary.AveragePrice = sum / float64(len(products))
	summary.MinPrice = min
	summary.MaxPrice = max
	summary.PriceRange = fmt.Sprintf("%.2f - %.2f", min, max)
	summary.BrandDiversity = len(brands)
	summary.TopBrands = topBrands(brands)
	return summary
}

func brandOf(p sources.Product) string {
	if raw, ok := p.Metadata["brand"]; ok {
		if brand, ok := raw.(string); ok && brand != "" {
			return brand
		}
	}
	return "Unknown"
}

// topBrands ranks brands by count descending, name ascending on ties for
// deterministic output, capped at topBrandLimit.
func topBrands(counts map[string]int) []BrandCount {
	ranked := make([]BrandCount, 0, len(counts))
	for brand, count := range counts {
		ranked = append(ranked, BrandCount{Brand: brand, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Brand < ranked[j].Brand
	})
	if len(ranked) > topBrandLimit {
		ranked = ranked[:topBrandLimit]
	}
	return ranked
}
