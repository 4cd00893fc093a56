package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
	pkgcache "github.com/J-Mash24/worldz1/pkg/cache"
	"github.com/J-Mash24/worldz1/pkg/util"
)

// DashboardUseCase serves the three chart payloads: comparison bars, trend
// lines, and the choropleth map. Per-member fetches fan out concurrently;
// the aggregation itself is a pure synchronous fold over the materialized
// series.
type DashboardUseCase struct {
	source   drepo.IndicatorSource
	resolver drepo.GroupResolver
	store    drepo.SnapshotStore // optional archive fallback
	cache    pkgcache.Service    // optional computed-result cache
	cacheTTL time.Duration
	metrics  drepo.Metrics
	workers  int
	timeout  time.Duration
}

// DashboardOption configures DashboardUseCase.
type DashboardOption func(*DashboardUseCase)

// WithSnapshotStore sets the archive used when the remote API has no data.
func WithSnapshotStore(s drepo.SnapshotStore) DashboardOption {
	return func(uc *DashboardUseCase) { uc.store = s }
}

// WithResultCache caches computed payloads.
func WithResultCache(c pkgcache.Service, ttl time.Duration) DashboardOption {
	return func(uc *DashboardUseCase) {
		uc.cache = c
		uc.cacheTTL = ttl
	}
}

// WithDashboardMetrics sets the metrics recorder.
func WithDashboardMetrics(m drepo.Metrics) DashboardOption {
	return func(uc *DashboardUseCase) { uc.metrics = m }
}

// WithFetchWorkers bounds the per-request fetch fan-out.
func WithFetchWorkers(n int) DashboardOption {
	return func(uc *DashboardUseCase) {
		if n > 0 {
			uc.workers = n
		}
	}
}

func NewDashboardUseCase(source drepo.IndicatorSource, resolver drepo.GroupResolver, opts ...DashboardOption) *DashboardUseCase {
	uc := &DashboardUseCase{
		source:   source,
		resolver: resolver,
		workers:  8,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type CompareParams struct {
	Indicator string
	Selection models.Selection
	Mode      models.AggregateMode
}

type TrendsParams struct {
	Indicator string
	Selection models.Selection
	Mode      models.AggregateMode
	Rebase    bool
	FromYear  int
	ToYear    int
}

// Compare returns the latest value per member plus a group aggregate.
func (uc *DashboardUseCase) Compare(ctx context.Context, p CompareParams) (*models.CompareResult, error) {
	group, err := uc.resolver.Resolve(p.Selection)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	key := pkgcache.GenerateKeyWithParams("compare", p.Indicator, group.Name, p.Mode, joinCodes(group.Codes))
	if res, ok := cachedResult[*models.CompareResult](ctx, uc.cache, key); ok {
		return res, nil
	}

	latest := uc.fetchLatestAll(ctx, group.Codes, p.Indicator)

	members := make([]models.CompareEntry, 0, len(group.Codes))
	for _, code := range group.Codes {
		obs, ok := latest[code]
		if !ok {
			continue
		}
		members = append(members, models.CompareEntry{
			Code:    code,
			Value:   obs.Value,
			Year:    obs.Year,
			Display: util.FormatCompact(obs.Value),
		})
	}

	res := &models.CompareResult{
		Group:     group.Name,
		Indicator: p.Indicator,
		Mode:      p.Mode,
		Members:   members,
	}
	if agg, ok := uc.compareAggregate(ctx, group.Codes, p, latest); ok {
		res.Aggregate = &agg
	}

	uc.storeResult(ctx, key, res)
	return res, nil
}

// compareAggregate folds the member latest values under the requested mode.
// Weighted-ratio weighs each member by its population so per-capita metrics
// come out as sum(numerator)/sum(population) rather than a mean of ratios.
func (uc *DashboardUseCase) compareAggregate(ctx context.Context, codes []string, p CompareParams, latest map[string]models.Observation) (models.CompareEntry, bool) {
	if len(latest) == 0 {
		return models.CompareEntry{}, false
	}

	var value float64
	year := 0
	switch p.Mode {
	case models.ModeSum, models.ModeMean:
		var sum float64
		for _, obs := range latest {
			sum += obs.Value
			if obs.Year > year {
				year = obs.Year
			}
		}
		value = sum
		if p.Mode == models.ModeMean {
			value = sum / float64(len(latest))
		}
	case models.ModeWeightedRatio:
		pops := uc.fetchLatestAll(ctx, codes, models.IndicatorPopulation)
		var num, weight float64
		for code, obs := range latest {
			pop, ok := pops[code]
			if !ok || pop.Value == 0 {
				continue
			}
			num += obs.Value * pop.Value
			weight += pop.Value
			if obs.Year > year {
				year = obs.Year
			}
		}
		if weight == 0 {
			return models.CompareEntry{}, false
		}
		value = num / weight
	default:
		return models.CompareEntry{}, false
	}

	return models.CompareEntry{Code: "group", Value: value, Year: year, Display: util.FormatCompact(value)}, true
}

// Trends returns the aggregated annual series for the selected group.
func (uc *DashboardUseCase) Trends(ctx context.Context, p TrendsParams) (*models.AggregatedSeries, error) {
	group, err := uc.resolver.Resolve(p.Selection)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	key := pkgcache.GenerateKeyWithParams("trends", p.Indicator, group.Name, p.Mode, p.Rebase, p.FromYear, p.ToYear, joinCodes(group.Codes))
	if res, ok := cachedResult[*models.AggregatedSeries](ctx, uc.cache, key); ok {
		return res, nil
	}

	series := uc.fetchSeriesAll(ctx, group.Codes, p.Indicator)
	if p.Rebase {
		// Rebasing happens per country, before aggregation. Countries whose
		// base year is missing or zero drop out entirely.
		for code, s := range series {
			series[code] = Rebase(s)
		}
	}
	fetch := func(code string) models.Series { return series[code] }

	var points models.Series
	switch p.Mode {
	case models.ModeSum:
		points = AggregateSum(group.Codes, fetch)
	case models.ModeMean:
		points = AggregateMean(group.Codes, fetch)
	case models.ModeWeightedRatio:
		pops := uc.fetchSeriesAll(ctx, group.Codes, models.IndicatorPopulation)
		numerator := func(code string) models.Series {
			return multiplySeries(series[code], pops[code])
		}
		weight := func(code string) models.Series { return pops[code] }
		points = AggregateWeightedRatio(group.Codes, numerator, weight)
	default:
		return nil, fmt.Errorf("unknown aggregation mode %q", p.Mode)
	}

	res := &models.AggregatedSeries{
		Group:     group.Name,
		Indicator: p.Indicator,
		Mode:      p.Mode,
		Points:    ClipYears(points, p.FromYear, p.ToYear),
	}
	uc.storeResult(ctx, key, res)
	return res, nil
}

// MapData returns the latest value for every country, for the choropleth.
func (uc *DashboardUseCase) MapData(ctx context.Context, indicator string) ([]models.MapEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	key := pkgcache.GenerateKey("map", indicator)
	if res, ok := cachedResult[[]models.MapEntry](ctx, uc.cache, key); ok {
		return res, nil
	}

	countries, err := uc.source.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}

	codes := make([]string, len(countries))
	names := make(map[string]string, len(countries))
	for i, c := range countries {
		codes[i] = c.Code
		names[c.Code] = c.Name
	}

	latest := uc.fetchLatestAll(ctx, codes, indicator)

	out := make([]models.MapEntry, 0, len(latest))
	for _, code := range codes {
		obs, ok := latest[code]
		if !ok {
			continue // countries without data are omitted, not zeroed
		}
		out = append(out, models.MapEntry{
			Code:    code,
			Name:    names[code],
			Value:   obs.Value,
			Year:    obs.Year,
			Display: util.FormatCompact(obs.Value),
		})
	}

	uc.storeResult(ctx, key, out)
	return out, nil
}

// Countries exposes the country listing for the sidebar.
func (uc *DashboardUseCase) Countries(ctx context.Context) ([]models.Country, error) {
	return uc.source.Countries(ctx)
}

// Presets exposes the configured region/bloc groups.
func (uc *DashboardUseCase) Presets() []models.Group {
	return uc.resolver.Presets()
}

// ResolveSelection exposes group resolution for callers that drive their own
// flow, like the live stream.
func (uc *DashboardUseCase) ResolveSelection(sel models.Selection) (models.Group, error) {
	return uc.resolver.Resolve(sel)
}

// fetchSeriesAll fetches one series per code with a bounded worker pool,
// falling back to the snapshot archive when the remote source has nothing.
func (uc *DashboardUseCase) fetchSeriesAll(ctx context.Context, codes []string, indicator string) map[string]models.Series {
	out := make(map[string]models.Series, len(codes))
	var mu sync.Mutex

	uc.fanOut(ctx, codes, func(ctx context.Context, code string) {
		s, err := uc.source.FetchSeries(ctx, code, indicator)
		if err != nil || len(s) == 0 {
			if uc.store != nil {
				if archived, aerr := uc.store.QuerySeries(ctx, code, indicator); aerr == nil && len(archived) > 0 {
					if uc.metrics != nil {
						uc.metrics.RecordCacheHit("archive")
					}
					s = archived
				}
			}
		}
		if len(s) == 0 {
			return
		}
		mu.Lock()
		out[code] = s
		mu.Unlock()
	})
	return out
}

// fetchLatestAll fetches the latest observation per code with a bounded
// worker pool. Codes without data are simply absent from the result.
func (uc *DashboardUseCase) fetchLatestAll(ctx context.Context, codes []string, indicator string) map[string]models.Observation {
	out := make(map[string]models.Observation, len(codes))
	var mu sync.Mutex

	uc.fanOut(ctx, codes, func(ctx context.Context, code string) {
		obs, ok, err := uc.source.FetchLatest(ctx, code, indicator)
		if err != nil || !ok {
			return
		}
		mu.Lock()
		out[code] = obs
		mu.Unlock()
	})
	return out
}

func (uc *DashboardUseCase) fanOut(ctx context.Context, codes []string, fn func(context.Context, string)) {
	sem := make(chan struct{}, uc.workers)
	var wg sync.WaitGroup
	for _, code := range codes {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, code)
		}(code)
	}
	wg.Wait()
}

func (uc *DashboardUseCase) storeResult(ctx context.Context, key string, v interface{}) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Set(ctx, key, v, uc.cacheTTL)
}

// cachedResult fetches a typed value from the result cache. Backends that
// round-trip through JSON (Redis) miss the type assertion and force a
// recompute, which is correct if not optimal.
func cachedResult[T any](ctx context.Context, c pkgcache.Service, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	var raw interface{}
	if err := c.Get(ctx, key, &raw); err != nil {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// multiplySeries returns the year-wise product of a and b, restricted to
// years present in both.
func multiplySeries(a, b models.Series) models.Series {
	bm := toMap(b)
	out := make(models.Series, 0, len(a))
	for _, obs := range a {
		w, ok := bm[obs.Year]
		if !ok {
			continue
		}
		out = append(out, models.Observation{Year: obs.Year, Value: obs.Value * w})
	}
	return out
}

func joinCodes(codes []string) string {
	return strings.Join(codes, ",")
}
