package worldbank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	icache "github.com/J-Mash24/worldz1/internal/service/cache"
)

const seriesPayload = `[
  {"page":1,"pages":1,"per_page":1000,"total":4},
  [
    {"date":"2022","value":null},
    {"date":"2021","value":83.1},
    {"date":"2020","value":83.2},
    {"date":"2019","value":null}
  ]
]`

const countriesPayload = `[
  {"page":1,"pages":1},
  [
    {"id":"DEU","name":"Germany","region":{"id":"ECS","value":"Europe & Central Asia"}},
    {"id":"WLD","name":"World","region":{"id":"NA","value":"Aggregates"}},
    {"id":"BRA","name":"Brazil","region":{"id":"LCN","value":"Latin America & Caribbean"}}
  ]
]`

func TestFetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/country/DEU/indicator/SP.POP.TOTL", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(seriesPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	got, err := c.FetchSeries(context.Background(), "DEU", "SP.POP.TOTL")

	require.NoError(t, err)
	assert.Equal(t, models.Series{
		{Year: 2020, Value: 83.2},
		{Year: 2021, Value: 83.1},
	}, got)
}

func TestFetchLatestSkipsNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(seriesPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	obs, ok, err := c.FetchLatest(context.Background(), "DEU", "SP.POP.TOTL")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.Observation{Year: 2021, Value: 83.1}, obs)
}

func TestFetchSeriesAbsorbsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	got, err := c.FetchSeries(context.Background(), "DEU", "SP.POP.TOTL")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchSeriesAbsorbsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Invalid indicator responses carry a single-element envelope.
		_, _ = w.Write([]byte(`[{"message":[{"id":"120","value":"Invalid indicator"}]}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	got, err := c.FetchSeries(context.Background(), "DEU", "XX.BAD")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCountriesFiltersAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(countriesPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	got, err := c.Countries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.Country{
		{Name: "Germany", Code: "DEU", Region: "Europe & Central Asia"},
		{Name: "Brazil", Code: "BRA", Region: "Latin America & Caribbean"},
	}, got)
}

func TestFetchSeriesUsesCache(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_, _ = w.Write([]byte(seriesPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, WithCache(icache.NewTTLCache(), time.Minute))

	for i := 0; i < 3; i++ {
		got, err := c.FetchSeries(context.Background(), "DEU", "SP.POP.TOTL")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}

	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))
}
