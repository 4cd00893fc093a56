package models

import "time"

// Well-known World Bank indicator codes used across the dashboard.
const (
	IndicatorPopulation   = "SP.POP.TOTL"
	IndicatorGDP          = "NY.GDP.MKTP.CD"
	IndicatorGDPPerCapita = "NY.GDP.PCAP.CD"
)

// Observation is one annual data point for a single country.
// At most one observation per year per country.
type Observation struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is one country's annual time series, sorted ascending by year.
// Years need not be contiguous; missing years are simply absent.
type Series []Observation

// AggregateMode selects how member series are combined into a group series.
type AggregateMode string

const (
	ModeSum           AggregateMode = "sum"
	ModeMean          AggregateMode = "mean"
	ModeWeightedRatio AggregateMode = "weighted_ratio"
)

// Group is a named, order-insensitive set of country codes. Membership is
// resolved once per request and immutable afterwards.
type Group struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Codes       []string `json:"codes"`
}

// Selection is a user's group choice: either an explicit list of country
// codes or the key of a configured preset. Exactly one should be set.
type Selection struct {
	Codes  []string `json:"codes,omitempty"`
	Preset string   `json:"preset,omitempty"`
}

// AggregatedSeries is the cross-country result for one group and indicator,
// one point per year reported by at least one member.
type AggregatedSeries struct {
	Group     string        `json:"group"`
	Indicator string        `json:"indicator"`
	Mode      AggregateMode `json:"mode"`
	Points    Series        `json:"points"`
}

// Country is one entry of the World Bank country listing. Rows whose region
// id is "NA" are aggregates (e.g. "World", "Euro area") and are filtered out
// before reaching the domain.
type Country struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Region string `json:"region,omitempty"`
}

// Snapshot is one archived observation flowing through the refresh pipeline
// into Kafka or ClickHouse.
type Snapshot struct {
	Indicator string    `json:"indicator"`
	Country   string    `json:"country"`
	Year      int       `json:"year"`
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// MapEntry is one choropleth cell: a country and its latest indicator value.
// Display carries the compact label ("1.4B") the frontend shows on hover.
type MapEntry struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Year    int     `json:"year"`
	Display string  `json:"display,omitempty"`
}

// CompareEntry is one bar of the comparison chart.
type CompareEntry struct {
	Code    string  `json:"code"`
	Name    string  `json:"name,omitempty"`
	Value   float64 `json:"value"`
	Year    int     `json:"year"`
	Display string  `json:"display,omitempty"`
}

// CompareResult is the comparison payload for one group: per-member latest
// values plus the group aggregate.
type CompareResult struct {
	Group     string         `json:"group"`
	Indicator string         `json:"indicator"`
	Mode      AggregateMode  `json:"mode"`
	Members   []CompareEntry `json:"members"`
	Aggregate *CompareEntry  `json:"aggregate,omitempty"`
}

// LiveEstimate is one tick of the estimated population growth stream.
type LiveEstimate struct {
	Group     string    `json:"group"`
	Estimate  float64   `json:"estimate"`
	PerSecond float64   `json:"per_second"`
	Elapsed   float64   `json:"elapsed_seconds"`
	At        time.Time `json:"at"`
	Display   string    `json:"display,omitempty"`
}
