package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

// fakeSource serves canned latest observations.
type fakeSource struct {
	latest map[string]models.Observation
	series map[string]models.Series
}

func (f *fakeSource) FetchSeries(_ context.Context, code, _ string) (models.Series, error) {
	return f.series[code], nil
}

func (f *fakeSource) FetchLatest(_ context.Context, code, _ string) (models.Observation, bool, error) {
	obs, ok := f.latest[code]
	return obs, ok, nil
}

func (f *fakeSource) Countries(_ context.Context) ([]models.Country, error) {
	return nil, nil
}

func TestGrowthTickerEstimate(t *testing.T) {
	src := &fakeSource{latest: map[string]models.Observation{
		"WLD": {Year: 2023, Value: 8_000_000_000},
		"CHN": {Year: 2023, Value: 1_400_000_000},
		"IND": {Year: 2023, Value: 1_400_000_000},
	}}
	ticker := NewGrowthTicker(src, 140_000_000, 60_000_000)

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sess, err := ticker.StartSession(context.Background(),
		models.Group{Name: "Asia pair", Codes: []string{"CHN", "IND"}}, start)
	require.NoError(t, err)

	// Group holds 35% of world population, so its share of the 80M annual
	// net growth is 28M people per year.
	wantRate := 28_000_000.0 / secondsPerYear
	est := ticker.Estimate(sess, start.Add(10*time.Second))
	assert.InDelta(t, wantRate, est.PerSecond, 1e-6)
	assert.InDelta(t, wantRate*10, est.Estimate, 1e-3)
	assert.InDelta(t, 10, est.Elapsed, 1e-9)
}

func TestGrowthTickerDeterministicForFixedInputs(t *testing.T) {
	src := &fakeSource{latest: map[string]models.Observation{
		"WLD": {Year: 2023, Value: 1000},
		"BRA": {Year: 2023, Value: 100},
	}}
	ticker := NewGrowthTicker(src, 140, 60)

	start := time.Unix(1_700_000_000, 0)
	sess, err := ticker.StartSession(context.Background(),
		models.Group{Name: "g", Codes: []string{"BRA"}}, start)
	require.NoError(t, err)

	at := start.Add(time.Minute)
	first := ticker.Estimate(sess, at)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ticker.Estimate(sess, at))
	}
}

func TestGrowthTickerMissingWorldPopulation(t *testing.T) {
	src := &fakeSource{latest: map[string]models.Observation{
		"BRA": {Year: 2023, Value: 100},
	}}
	ticker := NewGrowthTicker(src, 140, 60)

	start := time.Unix(1_700_000_000, 0)
	sess, err := ticker.StartSession(context.Background(),
		models.Group{Name: "g", Codes: []string{"BRA"}}, start)
	require.NoError(t, err)

	est := ticker.Estimate(sess, start.Add(time.Hour))
	assert.Zero(t, est.Estimate)
	assert.Zero(t, est.PerSecond)
}

func TestGrowthTickerClampsNegativeElapsed(t *testing.T) {
	src := &fakeSource{latest: map[string]models.Observation{
		"WLD": {Year: 2023, Value: 1000},
		"BRA": {Year: 2023, Value: 500},
	}}
	ticker := NewGrowthTicker(src, 140, 60)

	start := time.Unix(1_700_000_000, 0)
	sess, err := ticker.StartSession(context.Background(),
		models.Group{Name: "g", Codes: []string{"BRA"}}, start)
	require.NoError(t, err)

	est := ticker.Estimate(sess, start.Add(-time.Minute))
	assert.Zero(t, est.Estimate)
	assert.Zero(t, est.Elapsed)
}
