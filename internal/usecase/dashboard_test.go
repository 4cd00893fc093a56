package usecase

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

// multiSource serves canned data keyed by indicator then country code.
type multiSource struct {
	series    map[string]map[string]models.Series
	latest    map[string]map[string]models.Observation
	countries []models.Country
}

func (m *multiSource) FetchSeries(_ context.Context, code, indicator string) (models.Series, error) {
	return m.series[indicator][code], nil
}

func (m *multiSource) FetchLatest(_ context.Context, code, indicator string) (models.Observation, bool, error) {
	obs, ok := m.latest[indicator][code]
	return obs, ok, nil
}

func (m *multiSource) Countries(_ context.Context) ([]models.Country, error) {
	return m.countries, nil
}

// staticResolver returns one fixed group for any selection.
type staticResolver struct {
	group models.Group
}

func (s *staticResolver) Resolve(models.Selection) (models.Group, error) { return s.group, nil }
func (s *staticResolver) Presets() []models.Group                        { return []models.Group{s.group} }

func TestTrendsMean(t *testing.T) {
	src := &multiSource{series: map[string]map[string]models.Series{
		"SP.POP.TOTL": {
			"SWE": {{Year: 2000, Value: 10}, {Year: 2001, Value: 30}},
			"NOR": {{Year: 2000, Value: 20}},
		},
	}}
	uc := NewDashboardUseCase(src, &staticResolver{models.Group{Name: "Nordics", Codes: []string{"SWE", "NOR"}}})

	res, err := uc.Trends(context.Background(), TrendsParams{
		Indicator: "SP.POP.TOTL",
		Mode:      models.ModeMean,
	})
	require.NoError(t, err)

	assert.Equal(t, "Nordics", res.Group)
	assert.Equal(t, models.Series{
		{Year: 2000, Value: 15},
		{Year: 2001, Value: 30},
	}, res.Points)
}

func TestTrendsRebasePerCountryBeforeAggregation(t *testing.T) {
	// A doubles, B halves; rebased mean is flat only if rebasing happens per
	// country first.
	src := &multiSource{series: map[string]map[string]models.Series{
		"NY.GDP.MKTP.CD": {
			"A": {{Year: 2000, Value: 50}, {Year: 2001, Value: 100}},
			"B": {{Year: 2000, Value: 200}, {Year: 2001, Value: 100}},
		},
	}}
	uc := NewDashboardUseCase(src, &staticResolver{models.Group{Name: "pair", Codes: []string{"A", "B"}}})

	res, err := uc.Trends(context.Background(), TrendsParams{
		Indicator: "NY.GDP.MKTP.CD",
		Mode:      models.ModeMean,
		Rebase:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.Series{
		{Year: 2000, Value: 100},
		{Year: 2001, Value: 125}, // mean(200, 50)
	}, res.Points)
}

func TestTrendsWeightedRatio(t *testing.T) {
	// Per-capita indicator with population weight: the group value must be
	// sum(value*pop)/sum(pop), not the mean of the per-country values.
	src := &multiSource{series: map[string]map[string]models.Series{
		"NY.GDP.PCAP.CD": {
			"A": {{Year: 2020, Value: 10}},
			"B": {{Year: 2020, Value: 1}},
		},
		"SP.POP.TOTL": {
			"A": {{Year: 2020, Value: 10}},
			"B": {{Year: 2020, Value: 100}},
		},
	}}
	uc := NewDashboardUseCase(src, &staticResolver{models.Group{Name: "pair", Codes: []string{"A", "B"}}})

	res, err := uc.Trends(context.Background(), TrendsParams{
		Indicator: "NY.GDP.PCAP.CD",
		Mode:      models.ModeWeightedRatio,
	})
	require.NoError(t, err)

	require.Len(t, res.Points, 1)
	// (10*10 + 1*100) / (10 + 100) = 200/110
	assert.InDelta(t, 200.0/110.0, res.Points[0].Value, 1e-9)
	assert.Greater(t, math.Abs(res.Points[0].Value-5.5), 0.1) // mean-of-ratios would be 5.5
}

func TestTrendsYearClipping(t *testing.T) {
	src := &multiSource{series: map[string]map[string]models.Series{
		"SP.POP.TOTL": {
			"A": {{Year: 1990, Value: 1}, {Year: 2000, Value: 2}, {Year: 2010, Value: 3}},
		},
	}}
	uc := NewDashboardUseCase(src, &staticResolver{models.Group{Name: "g", Codes: []string{"A"}}})

	res, err := uc.Trends(context.Background(), TrendsParams{
		Indicator: "SP.POP.TOTL",
		Mode:      models.ModeSum,
		FromYear:  1995,
		ToYear:    2005,
	})
	require.NoError(t, err)

	assert.Equal(t, models.Series{{Year: 2000, Value: 2}}, res.Points)
}

func TestCompare(t *testing.T) {
	src := &multiSource{latest: map[string]map[string]models.Observation{
		"SP.POP.TOTL": {
			"DEU": {Year: 2023, Value: 84},
			"FRA": {Year: 2022, Value: 68},
		},
	}}
	uc := NewDashboardUseCase(src, &staticResolver{models.Group{Name: "pair", Codes: []string{"DEU", "FRA", "XXX"}}})

	res, err := uc.Compare(context.Background(), CompareParams{
		Indicator: "SP.POP.TOTL",
		Mode:      models.ModeMean,
	})
	require.NoError(t, err)

	// XXX has no data and is omitted, and the aggregate divides by the two
	// reporting members only.
	assert.Len(t, res.Members, 2)
	require.NotNil(t, res.Aggregate)
	assert.InDelta(t, 76, res.Aggregate.Value, 1e-9)
	assert.Equal(t, 2023, res.Aggregate.Year)
}

func TestCompareEmptyGroup(t *testing.T) {
	src := &multiSource{}
	uc := NewDashboardUseCase(src, &staticResolver{models.Group{Name: "empty", Codes: []string{"AAA"}}})

	res, err := uc.Compare(context.Background(), CompareParams{
		Indicator: "SP.POP.TOTL",
		Mode:      models.ModeSum,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Members)
	assert.Nil(t, res.Aggregate)
}

func TestMapDataOmitsCountriesWithoutData(t *testing.T) {
	src := &multiSource{
		countries: []models.Country{
			{Name: "Germany", Code: "DEU"},
			{Name: "Atlantis", Code: "ATL"},
		},
		latest: map[string]map[string]models.Observation{
			"SP.POP.TOTL": {
				"DEU": {Year: 2023, Value: 84},
			},
		},
	}
	uc := NewDashboardUseCase(src, &staticResolver{})

	got, err := uc.MapData(context.Background(), "SP.POP.TOTL")
	require.NoError(t, err)

	assert.Equal(t, []models.MapEntry{
		{Code: "DEU", Name: "Germany", Value: 84, Year: 2023, Display: "84"},
	}, got)
}
