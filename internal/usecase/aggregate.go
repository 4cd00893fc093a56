package usecase

import (
	"sort"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

// SeriesFunc supplies one member's series. Members without data return an
// empty series; they contribute no years and never abort the group.
type SeriesFunc func(code string) models.Series

// AggregateSum combines member series year by year using an arithmetic sum.
// A year appears in the output iff at least one member reports it; absent
// members contribute nothing for that year, never a zero.
func AggregateSum(codes []string, fetch SeriesFunc) models.Series {
	return aggregate(codes, fetch, false)
}

// AggregateMean combines member series year by year using the arithmetic mean
// over the members that report that year. The divisor is the count of
// reporting members, never the group size.
func AggregateMean(codes []string, fetch SeriesFunc) models.Series {
	return aggregate(codes, fetch, true)
}

func aggregate(codes []string, fetch SeriesFunc, mean bool) models.Series {
	sums := make(map[int]float64)
	counts := make(map[int]int)

	for _, code := range codes {
		for _, obs := range fetch(code) {
			sums[obs.Year] += obs.Value
			counts[obs.Year]++
		}
	}

	out := make(models.Series, 0, len(sums))
	for year, sum := range sums {
		v := sum
		if mean {
			v = sum / float64(counts[year])
		}
		out = append(out, models.Observation{Year: year, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// AggregateWeightedRatio computes a ratio-of-sums group metric: for each year,
// the sum of member numerators divided by the sum of member weights, counting
// only members that report both for that year. This is the correct aggregation
// for per-capita style metrics (e.g. sum(GDP)/sum(population)); averaging the
// per-member ratios gives a different and wrong answer. Years whose total
// weight is zero are omitted rather than producing Inf or NaN.
func AggregateWeightedRatio(codes []string, numerator, weight SeriesFunc) models.Series {
	nums := make(map[int]float64)
	weights := make(map[int]float64)

	for _, code := range codes {
		num := toMap(numerator(code))
		wgt := toMap(weight(code))
		for year, n := range num {
			w, ok := wgt[year]
			if !ok {
				continue
			}
			nums[year] += n
			weights[year] += w
		}
	}

	out := make(models.Series, 0, len(nums))
	for year, n := range nums {
		w := weights[year]
		if w == 0 {
			continue
		}
		out = append(out, models.Observation{Year: year, Value: n / w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Rebase indexes a single series to 100 at its first year. Rebasing is
// undefined when the series is empty or its first value is zero, in which
// case the result is empty and the caller drops the trace. Applied per
// country before any cross-country aggregation, never after.
func Rebase(s models.Series) models.Series {
	if len(s) == 0 {
		return models.Series{}
	}
	base := s[0].Value
	if base == 0 {
		return models.Series{}
	}
	out := make(models.Series, len(s))
	for i, obs := range s {
		out[i] = models.Observation{Year: obs.Year, Value: obs.Value / base * 100}
	}
	return out
}

// ClipYears keeps observations within [from, to]. A zero bound is open.
func ClipYears(s models.Series, from, to int) models.Series {
	out := make(models.Series, 0, len(s))
	for _, obs := range s {
		if from > 0 && obs.Year < from {
			continue
		}
		if to > 0 && obs.Year > to {
			continue
		}
		out = append(out, obs)
	}
	return out
}

func toMap(s models.Series) map[int]float64 {
	m := make(map[int]float64, len(s))
	for _, obs := range s {
		m[obs.Year] = obs.Value
	}
	return m
}
