package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

func fixedSeries(data map[string]models.Series) SeriesFunc {
	return func(code string) models.Series {
		return data[code]
	}
}

func TestAggregateSum(t *testing.T) {
	fetch := fixedSeries(map[string]models.Series{
		"DEU": {{Year: 2000, Value: 10}, {Year: 2001, Value: 20}},
		"FRA": {{Year: 2000, Value: 5}, {Year: 2002, Value: 7}},
	})

	got := AggregateSum([]string{"DEU", "FRA"}, fetch)

	assert.Equal(t, models.Series{
		{Year: 2000, Value: 15},
		{Year: 2001, Value: 20},
		{Year: 2002, Value: 7},
	}, got)
}

func TestAggregateMeanDividesByReportingCount(t *testing.T) {
	// Three members selected, but only two report 2000 and one reports 2001.
	// The divisor must be the reporting count, never the group size.
	fetch := fixedSeries(map[string]models.Series{
		"SWE": {{Year: 2000, Value: 10}, {Year: 2001, Value: 30}},
		"NOR": {{Year: 2000, Value: 20}},
		"DNK": {},
	})

	got := AggregateMean([]string{"SWE", "NOR", "DNK"}, fetch)

	assert.Equal(t, models.Series{
		{Year: 2000, Value: 15},
		{Year: 2001, Value: 30},
	}, got)
}

func TestAggregateOmitsUnreportedYears(t *testing.T) {
	// Disjoint years: no interpolation, no zero-fill.
	fetch := fixedSeries(map[string]models.Series{
		"A": {{Year: 2000, Value: 10}},
		"B": {{Year: 2001, Value: 20}},
	})

	got := AggregateSum([]string{"A", "B"}, fetch)

	assert.Equal(t, models.Series{
		{Year: 2000, Value: 10},
		{Year: 2001, Value: 20},
	}, got)
}

func TestAggregateDegenerateInputs(t *testing.T) {
	fetch := fixedSeries(nil)

	assert.Empty(t, AggregateSum(nil, fetch))
	assert.Empty(t, AggregateMean([]string{}, fetch))
	assert.Empty(t, AggregateSum([]string{"XXX"}, fetch))
}

func TestAggregateDeterminism(t *testing.T) {
	fetch := fixedSeries(map[string]models.Series{
		"BRA": {{Year: 1999, Value: 3}, {Year: 2005, Value: 9}},
		"IND": {{Year: 1999, Value: 4}},
		"CHN": {{Year: 2005, Value: 1}, {Year: 2010, Value: 2}},
	})
	codes := []string{"BRA", "IND", "CHN"}

	first := AggregateMean(codes, fetch)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AggregateMean(codes, fetch))
	}
}

func TestAggregateWeightedRatio(t *testing.T) {
	num := fixedSeries(map[string]models.Series{
		"A": {{Year: 2020, Value: 100}},
		"B": {{Year: 2020, Value: 50}},
	})
	wgt := fixedSeries(map[string]models.Series{
		"A": {{Year: 2020, Value: 10}},
		"B": {{Year: 2020, Value: 5}},
	})

	got := AggregateWeightedRatio([]string{"A", "B"}, num, wgt)

	assert.Equal(t, models.Series{{Year: 2020, Value: 10}}, got)
}

func TestAggregateWeightedRatioIsNotMeanOfRatios(t *testing.T) {
	// (100+10)/(10+100) ≈ 0.909 while mean(100/10, 10/100) = 5.05.
	num := fixedSeries(map[string]models.Series{
		"A": {{Year: 2020, Value: 100}},
		"B": {{Year: 2020, Value: 10}},
	})
	wgt := fixedSeries(map[string]models.Series{
		"A": {{Year: 2020, Value: 10}},
		"B": {{Year: 2020, Value: 100}},
	})

	got := AggregateWeightedRatio([]string{"A", "B"}, num, wgt)

	assert.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Value, 1e-9)
	assert.NotEqual(t, 5.05, got[0].Value)
}

func TestAggregateWeightedRatioRequiresBothSides(t *testing.T) {
	// B has a numerator for 2021 but no weight; the year must only count
	// members reporting both sides.
	num := fixedSeries(map[string]models.Series{
		"A": {{Year: 2021, Value: 40}},
		"B": {{Year: 2021, Value: 60}},
	})
	wgt := fixedSeries(map[string]models.Series{
		"A": {{Year: 2021, Value: 8}},
		"B": {},
	})

	got := AggregateWeightedRatio([]string{"A", "B"}, num, wgt)

	assert.Equal(t, models.Series{{Year: 2021, Value: 5}}, got)
}

func TestAggregateWeightedRatioZeroWeightOmitted(t *testing.T) {
	num := fixedSeries(map[string]models.Series{
		"A": {{Year: 2019, Value: 40}},
	})
	wgt := fixedSeries(map[string]models.Series{
		"A": {{Year: 2019, Value: 0}},
	})

	got := AggregateWeightedRatio([]string{"A"}, num, wgt)

	assert.Empty(t, got)
}

func TestRebase(t *testing.T) {
	s := models.Series{
		{Year: 2000, Value: 50},
		{Year: 2001, Value: 75},
		{Year: 2002, Value: 25},
	}

	got := Rebase(s)

	assert.Equal(t, models.Series{
		{Year: 2000, Value: 100},
		{Year: 2001, Value: 150},
		{Year: 2002, Value: 50},
	}, got)
}

func TestRebaseUndefinedBase(t *testing.T) {
	assert.Empty(t, Rebase(models.Series{}))
	assert.Empty(t, Rebase(models.Series{{Year: 2000, Value: 0}, {Year: 2001, Value: 9}}))
}

func TestClipYears(t *testing.T) {
	s := models.Series{
		{Year: 1998, Value: 1},
		{Year: 2000, Value: 2},
		{Year: 2005, Value: 3},
	}

	assert.Equal(t, models.Series{{Year: 2000, Value: 2}}, ClipYears(s, 2000, 2004))
	assert.Equal(t, s, ClipYears(s, 0, 0))
}
