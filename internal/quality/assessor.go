// Package quality turns raw aggregation outcomes into a quantified trust
// signal plus a user-facing disclosure. The service's value proposition is
// admitting uncertainty instead of presenting scraped market data as ground
// truth, so the disclosure ordering and content are part of the contract,
// not incidental formatting.
package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olegproektor/Idea-planner-agent/internal/logging"
	"github.com/olegproektor/Idea-planner-agent/internal/sources"
)

// Confidence is always reported inside these bounds: partial automated
// market data is never fully untrustworthy nor fully certain.
const (
	ConfidenceFloor   = 0.4
	ConfidenceCeiling = 0.9
)

const maxCitationSamples = 3

// Per-source base confidence, reflecting how structured and stable each
// provider's data is. Tuned constants, not derived.
var sourceBaseConfidence = map[string]float64{
	sources.SourceWildberries:  0.85,
	sources.SourceOzon:         0.80,
	sources.SourceYandexMarket: 0.75,
	sources.SourceGoogleTrends: 0.70,
}

const defaultSourceConfidence = 0.6

// SourceSample carries the per-source detail the assessor needs to build
// citations.
type SourceSample struct {
	BaseURL  string
	Products []sources.Product
}

// Input bundles the aggregation outcome handed to Assess.
type Input struct {
	Products      []sources.Product
	SourcesUsed   []string
	FailedSources []string
	CacheHits     map[string]bool
	DataAge       time.Duration
	PerSource     map[string]SourceSample
}

// SampleProduct is one cited listing.
type SampleProduct struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Price          float64 `json:"price"`
	BaseConfidence float64 `json:"base_confidence"`
}

// Citation shows a caller exactly what data a source contributed and how
// much to trust it, without the caller needing its own source knowledge.
type Citation struct {
	Source       string          `json:"source"`
	BaseURL      string          `json:"base_url"`
	ProductCount int             `json:"product_count"`
	Freshness    string          `json:"freshness"`
	Samples      []SampleProduct `json:"samples"`
}

// Report is the assessor's output.
type Report struct {
	ConfidenceScore   float64    `json:"confidence_score"`
	FreshnessScore    float64    `json:"freshness_score"`
	ReliabilityScore  float64    `json:"reliability_score"`
	CompletenessScore float64    `json:"completeness_score"`
	QualityGrade      string     `json:"quality_grade"`
	DisclosureMessage string     `json:"disclosure_message"`
	Citations         []Citation `json:"citations"`
}

// Assessor computes quality reports. Safe for concurrent use.
type Assessor struct {
	logger logging.Logger

	// score is swappable in tests
	score func(Input) Report
}

// NewAssessor creates an assessor.
func NewAssessor(logger logging.Logger) *Assessor {
	a := &Assessor{logger: logger}
	a.score = a.compute
	return a
}

// Assess produces a quality report. It never panics outward: a broken
// quality signal is less harmful than a broken search, so any internal
// failure degrades to a conservative floor-confidence report.
func (a *Assessor) Assess(in Input) (report Report) {
	defer func() {
		if r := recover(); r != nil {
			if a.logger != nil {
				a.logger.WithField("panic", r).Error("Quality assessment failed; degrading to floor confidence")
			}
			report = conservativeReport(in)
		}
	}()

	return a.score(in)
}

func (a *Assessor) compute(in Input) Report {
	errorRate := 0.0
	if len(in.SourcesUsed) > 0 {
		errorRate = float64(len(in.FailedSources)) / float64(len(in.SourcesUsed))
	}
	cacheFraction := 0.0
	if len(in.SourcesUsed) > 0 {
		hits := 0
		for _, name := range in.SourcesUsed {
			if in.CacheHits[name] {
				hits++
			}
		}
		cacheFraction = float64(hits) / float64(len(in.SourcesUsed))
	}

	base := baseConfidence(len(in.Products), errorRate)
	freshness := freshnessScore(in.DataAge)
	if len(in.SourcesUsed) > 0 && errorRate == 1 {
		// No source produced data, so there is nothing to be fresh. Without
		// this the age default would lift total failures off the floor.
		freshness = 0.3
	}
	reliability := reliabilityScore(errorRate, cacheFraction)

	// Two-stage clamping: sub-scores are bounded above, and the blend is
	// re-clamped so the floor and ceiling hold however the weights are tuned.
	confidence := clamp(0.5*base+0.3*freshness+0.2*reliability, ConfidenceFloor, ConfidenceCeiling)

	report := Report{
		ConfidenceScore:   round3(confidence),
		FreshnessScore:    round3(freshness),
		ReliabilityScore:  round3(reliability),
		CompletenessScore: round3(completenessScore(in.Products)),
		QualityGrade:      grade(confidence),
		Citations:         a.citations(in),
	}
	report.DisclosureMessage = disclosure(report, in, cacheFraction)
	return report
}

// baseConfidence starts at the midpoint of the allowed band and shifts with
// result volume and error rate.
func baseConfidence(productCount int, errorRate float64) float64 {
	score := 0.65
	switch {
	case productCount == 0:
		score -= 0.15
	case productCount < 5:
		score -= 0.10
	case productCount < 15:
		score -= 0.05
	case productCount >= 50:
		score += 0.10
	case productCount >= 30:
		score += 0.05
	}
	switch {
	case errorRate > 0.5:
		score -= 0.15
	case errorRate > 0.2:
		score -= 0.08
	}
	return clamp(score, ConfidenceFloor, ConfidenceCeiling)
}

// freshnessScore is a step function of data age.
func freshnessScore(age time.Duration) float64 {
	switch {
	case age < time.Hour:
		return 1.0
	case age < 6*time.Hour:
		return 0.9
	case age < 24*time.Hour:
		return 0.75
	case age < 72*time.Hour:
		return 0.6
	case age < 7*24*time.Hour:
		return 0.45
	default:
		return 0.3
	}
}

// reliabilityScore penalizes failures and heavy cache usage (stale-data
// smell) and rewards mostly-live data.
func reliabilityScore(errorRate, cacheFraction float64) float64 {
	score := 0.7
	score -= 0.3 * errorRate
	if cacheFraction > 0.8 {
		score -= 0.1
	} else if cacheFraction < 0.2 {
		score += 0.1
	}
	return clamp(score, 0.3, 1.0)
}

// completenessScore is the fraction of products that look like well-formed
// listings rather than scraping artifacts.
func completenessScore(products []sources.Product) float64 {
	if len(products) == 0 {
		return 0.0
	}
	complete := 0
	for _, p := range products {
		if p.Price > 0 && p.ID != "" && p.Title != "" && p.URL != "" && len(p.Metadata) >= 3 {
			complete++
		}
	}
	return float64(complete) / float64(len(products))
}

func grade(confidence float64) string {
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

func confidenceTier(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return "🟢 High confidence"
	case confidence >= 0.55:
		return "🟡 Moderate confidence"
	default:
		return "🔴 Low confidence"
	}
}

// disclosure renders the pipe-delimited user-facing message. Category order
// is contractual: tier, sources, errors, data age, cache note, grade.
func disclosure(report Report, in Input, cacheFraction float64) string {
	parts := []string{confidenceTier(report.ConfidenceScore)}

	if len(in.SourcesUsed) > 0 {
		parts = append(parts, "Sources: "+strings.Join(in.SourcesUsed, ", "))
	}
	if len(in.FailedSources) > 0 {
		failed := append([]string(nil), in.FailedSources...)
		sort.Strings(failed)
		parts = append(parts, "Errors: "+strings.Join(failed, ", "))
	}
	parts = append(parts, "Data from "+humanizeAge(in.DataAge))
	if cacheFraction > 0 {
		parts = append(parts, "Partially served from cache")
	}
	parts = append(parts, "Grade: "+report.QualityGrade)

	return strings.Join(parts, " | ")
}

func humanizeAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return plural(int(age.Seconds()), "second") + " ago"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute") + " ago"
	case age < 24*time.Hour:
		return plural(int(age.Hours()), "hour") + " ago"
	default:
		return plural(int(age.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func (a *Assessor) citations(in Input) []Citation {
	citations := make([]Citation, 0, len(in.PerSource))
	for _, name := range in.SourcesUsed {
		sample, ok := in.PerSource[name]
		if !ok {
			continue
		}
		baseConf, ok := sourceBaseConfidence[name]
		if !ok {
			baseConf = defaultSourceConfidence
		}

		samples := make([]SampleProduct, 0, maxCitationSamples)
		for _, p := range sample.Products {
			if len(samples) == maxCitationSamples {
				break
			}
			samples = append(samples, SampleProduct{
				ID:             p.ID,
				Title:          p.Title,
				URL:            p.URL,
				Price:          p.Price,
				BaseConfidence: baseConf,
			})
		}

		citations = append(citations, Citation{
			Source:       name,
			BaseURL:      sample.BaseURL,
			ProductCount: len(sample.Products),
			Freshness:    humanizeAge(in.DataAge),
			Samples:      samples,
		})
	}
	return citations
}

func conservativeReport(in Input) Report {
	report := Report{
		ConfidenceScore:   ConfidenceFloor,
		FreshnessScore:    0.3,
		ReliabilityScore:  0.3,
		CompletenessScore: 0.0,
		QualityGrade:      grade(ConfidenceFloor),
	}
	report.DisclosureMessage = disclosure(report, in, 0)
	return report
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
