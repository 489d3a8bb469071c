// Package aggregator orchestrates multi-source market data queries: parallel
// fan-out under one deadline, cache-first reads with stale fallback, and
// partial-failure tolerance. One failed source never fails the call; only the
// overall timeout does.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegproektor/Idea-planner-agent/internal/cache"
	"github.com/olegproektor/Idea-planner-agent/internal/config"
	"github.com/olegproektor/Idea-planner-agent/internal/logging"
	"github.com/olegproektor/Idea-planner-agent/internal/quality"
	"github.com/olegproektor/Idea-planner-agent/internal/sources"
)

// Aggregator fans a query out to the configured sources. Safe for
// concurrent use; Close releases the sources and the cache once.
type Aggregator struct {
	byName   map[string]sources.Source
	order    []string
	store    cache.Store
	assessor *quality.Assessor
	logger   logging.Logger

	maxWorkers      int
	searchTimeout   time.Duration
	trendsTimeout   time.Duration
	useCache        bool
	fallbackToCache bool

	closeOnce sync.Once
	closeErr  error
}

// New builds an aggregator over the given sources. Source order is kept for
// deterministic disclosure messages.
func New(cfg config.Config, srcs []sources.Source, store cache.Store, logger logging.Logger) *Aggregator {
	byName := make(map[string]sources.Source, len(srcs))
	order := make([]string, 0, len(srcs))
	for _, src := range srcs {
		if _, dup := byName[src.Name()]; dup {
			continue
		}
		byName[src.Name()] = src
		order = append(order, src.Name())
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 3
	}

	return &Aggregator{
		byName:          byName,
		order:           order,
		store:           store,
		assessor:        quality.NewAssessor(logger),
		logger:          logger,
		maxWorkers:      maxWorkers,
		searchTimeout:   cfg.SearchTimeout,
		trendsTimeout:   cfg.TrendsTimeout,
		useCache:        cfg.UseCache,
		fallbackToCache: cfg.FallbackToCache,
	}
}

// SourceNames returns the configured source names in registration order.
func (a *Aggregator) SourceNames() []string {
	return append([]string(nil), a.order...)
}

// DefaultSearchOptions returns the configured per-call defaults.
func (a *Aggregator) DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		UseCache:        a.useCache,
		FallbackToCache: a.fallbackToCache,
		Timeout:         a.searchTimeout,
	}
}

// DefaultTrendOptions returns the configured per-call defaults.
func (a *Aggregator) DefaultTrendOptions() TrendOptions {
	return TrendOptions{Timeout: a.trendsTimeout}
}

// resolve maps the requested source names onto the configured set. Unknown
// names are dropped without error; nil means all configured sources.
func (a *Aggregator) resolve(requested []string) []string {
	if len(requested) == 0 {
		return a.SourceNames()
	}
	selected := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, name := range requested {
		if _, ok := a.byName[name]; ok && !seen[name] {
			selected = append(selected, name)
			seen[name] = true
		}
	}
	return selected
}

// unitResult is the outcome of one per-source unit of work. A cancelled
// unit counts as neither success nor failure; the call fails wholesale with
// a timeout instead.
type unitResult struct {
	source    string
	products  []sources.Product
	cacheHit  bool
	fallback  bool
	fetchedAt time.Time
	err       error
	cancelled bool
}

// Search runs the query against the selected sources under one deadline and
// returns a best-effort bundle. The error return is non-nil only when the
// whole call failed: deadline exceeded (*TimeoutError) or parent context
// cancelled.
func (a *Aggregator) Search(ctx context.Context, query string, opts SearchOptions) (*SearchBundle, error) {
	start := time.Now()
	selected := a.resolve(opts.Sources)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = a.searchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]unitResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxWorkers)
	for i, name := range selected {
		i, name := i, name
		g.Go(func() error {
			results[i] = a.searchOne(gctx, name, query, opts)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.WithFields(logging.Fields{
				"query":   query,
				"timeout": timeout.String(),
			}).Warn("Search aggregation timed out")
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, fmt.Errorf("search aggregation cancelled: %w", err)
	}

	return a.assemble(query, selected, results, start), nil
}

// searchOne is one per-source unit: cache-first, fetch, cache write, stale
// fallback. It never returns an error to the group; failures are values.
func (a *Aggregator) searchOne(ctx context.Context, name, query string, opts SearchOptions) unitResult {
	res := unitResult{source: name}
	src := a.byName[name]

	if opts.UseCache {
		if payload, ok := a.store.Get(ctx, name, query); ok {
			res.products = payload.Products
			res.cacheHit = true
			res.fetchedAt = payload.CachedAt
			return res
		}
	}

	products, err := src.Search(ctx, query)
	if ctx.Err() != nil {
		// A result observed after cancellation must not be counted or
		// written to the cache.
		res.cancelled = true
		return res
	}
	if err != nil {
		if opts.FallbackToCache {
			if payload, ok := a.store.Get(ctx, name, query); ok {
				a.logger.WithFields(logging.Fields{
					"source": name,
					"query":  query,
				}).WithError(err).Warn("Source fetch failed; serving stale cache entry")
				res.products = payload.Products
				res.cacheHit = true
				res.fallback = true
				res.fetchedAt = payload.CachedAt
				return res
			}
		}
		res.err = err
		return res
	}

	res.products = products
	res.fetchedAt = time.Now()
	if opts.UseCache {
		a.store.Set(ctx, name, query, cache.Payload{Products: products, CachedAt: res.fetchedAt})
	}
	return res
}

// assemble merges completed units into the final bundle and runs the
// quality assessment.
func (a *Aggregator) assemble(query string, selected []string, results []unitResult, start time.Time) *SearchBundle {
	now := time.Now()

	var (
		allProducts  []sources.Product
		sourceErrors []SourceError
		failedNames  []string
		cacheHits    = make(map[string]bool, len(results))
		perSource    = make(map[string]quality.SourceSample, len(results))
		ages         []time.Duration
		succeeded    int
	)
	sourceResults := make(map[string]SourceResult, len(results))

	for _, res := range results {
		if res.cancelled {
			continue
		}
		if res.err != nil {
			sourceErrors = append(sourceErrors, SourceError{Source: res.source, Message: res.err.Error()})
			failedNames = append(failedNames, res.source)
			sourceResults[res.source] = SourceResult{Source: res.source, Error: res.err.Error()}
			continue
		}
		succeeded++
		allProducts = append(allProducts, res.products...)
		cacheHits[res.source] = res.cacheHit
		ages = append(ages, now.Sub(res.fetchedAt))
		sourceResults[res.source] = SourceResult{
			Source:    res.source,
			Products:  res.products,
			Count:     len(res.products),
			CacheHit:  res.cacheHit,
			Fallback:  res.fallback,
			FetchedAt: res.fetchedAt,
		}
		perSource[res.source] = quality.SourceSample{
			BaseURL:  a.byName[res.source].BaseURL(),
			Products: res.products,
		}
	}

	summary := buildSummary(allProducts, len(selected), succeeded, len(failedNames), time.Since(start))

	report := a.assessor.Assess(quality.Input{
		Products:      allProducts,
		SourcesUsed:   selected,
		FailedSources: failedNames,
		CacheHits:     cacheHits,
		DataAge:       meanAge(ages),
		PerSource:     perSource,
	})

	if allProducts == nil {
		allProducts = []sources.Product{}
	}
	if sourceErrors == nil {
		sourceErrors = []SourceError{}
	}

	return &SearchBundle{
		Query:         query,
		Products:      allProducts,
		Summary:       summary,
		SourceResults: sourceResults,
		Errors:        sourceErrors,
		Quality:       report,
		Timestamp:     now,
	}
}

// Trends runs the trend query against the selected sources. No caching is
// applied; the aggregate score is the mean of the valid per-source scores,
// neutral 0.5 when every source failed.
func (a *Aggregator) Trends(ctx context.Context, query string, opts TrendOptions) (*TrendBundle, error) {
	selected := a.resolve(opts.Sources)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = a.trendsTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type trendUnit struct {
		source    string
		trend     sources.TrendData
		err       error
		cancelled bool
	}

	results := make([]trendUnit, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxWorkers)
	for i, name := range selected {
		i, name := i, name
		g.Go(func() error {
			trend, err := a.byName[name].Trends(gctx, query)
			if gctx.Err() != nil {
				results[i] = trendUnit{source: name, cancelled: true}
				return nil
			}
			results[i] = trendUnit{source: name, trend: trend, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, fmt.Errorf("trend aggregation cancelled: %w", err)
	}

	sourceResults := make(map[string]TrendResult, len(results))
	trendErrors := []SourceError{}
	var total float64
	var valid int
	for _, res := range results {
		if res.cancelled {
			continue
		}
		if res.err != nil {
			trendErrors = append(trendErrors, SourceError{Source: res.source, Message: res.err.Error()})
			sourceResults[res.source] = TrendResult{Source: res.source, Error: res.err.Error()}
			continue
		}
		total += res.trend.TrendScore
		valid++
		sourceResults[res.source] = TrendResult{Source: res.source, Trend: res.trend}
	}

	average := 0.5
	if valid > 0 {
		average = total / float64(valid)
	}

	return &TrendBundle{
		Query:         query,
		AverageScore:  average,
		SourceResults: sourceResults,
		Errors:        trendErrors,
		Timestamp:     time.Now(),
	}, nil
}

// ClearCache drops every cached search payload.
func (a *Aggregator) ClearCache(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Close releases every source and the cache backend. Subsequent calls
// return the first result.
func (a *Aggregator) Close() error {
	a.closeOnce.Do(func() {
		for _, name := range a.order {
			if err := a.byName[name].Close(); err != nil && a.closeErr == nil {
				a.closeErr = fmt.Errorf("close source %s: %w", name, err)
			}
		}
		if err := a.store.Close(); err != nil && a.closeErr == nil {
			a.closeErr = fmt.Errorf("close cache: %w", err)
		}
	})
	return a.closeErr
}

func meanAge(ages []time.Duration) time.Duration {
	if len(ages) == 0 {
		return 0
	}
	var total time.Duration
	for _, age := range ages {
		total += age
	}
	return total / time.Duration(len(ages))
}
