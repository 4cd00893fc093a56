package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
	icache "github.com/J-Mash24/worldz1/internal/service/cache"
	"github.com/J-Mash24/worldz1/internal/service/ratelimit"
	xhttp "github.com/J-Mash24/worldz1/pkg/http"
	xlogger "github.com/J-Mash24/worldz1/pkg/logger"
)

// Client implements IndicatorSource backed by the World Bank v2 REST API.
//
// Responses are cached as raw bytes with a time-based expiry, requests are
// throttled with a token bucket, and transient failures (network, bad status,
// malformed body) are absorbed: the caller gets an empty series or an absent
// observation, never an error it would have to special-case. The aggregation
// core downstream only ever sees valid numeric observations.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	perPage  int
	cache    icache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	rps      float64
	metrics  drepo.Metrics
	logger   *xlogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithCache sets the byte cache and TTL for API payloads.
func WithCache(c icache.BytesCache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithRateLimit sets the request budget per second against the API host.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.rps = rps
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m drepo.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *xlogger.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithPerPage sets the page size requested from the API.
func WithPerPage(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.perPage = n
		}
	}
}

// New creates a World Bank API client.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		perPage: 1000,
		rps:     10,
		limiter: ratelimit.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wbRow is one data row of an indicator response.
type wbRow struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// wbCountry is one row of the country listing.
type wbCountry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"region"`
}

// FetchSeries returns the full annual series for one country and indicator,
// null values filtered, sorted ascending by year. Failures yield an empty
// series.
func (c *Client) FetchSeries(ctx context.Context, code, indicator string) (models.Series, error) {
	url := fmt.Sprintf("%s/country/%s/indicator/%s", c.baseURL, code, indicator)
	body, ok := c.fetch(ctx, url)
	if !ok {
		return models.Series{}, nil
	}

	rows, ok := decodeRows(body)
	if !ok {
		c.recordError("decode_series")
		return models.Series{}, nil
	}

	out := make(models.Series, 0, len(rows))
	for _, r := range rows {
		if r.Value == nil {
			continue
		}
		year, err := strconv.Atoi(r.Date)
		if err != nil {
			// Quarterly/monthly dates ("2020Q1") are out of scope.
			continue
		}
		out = append(out, models.Observation{Year: year, Value: *r.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	if c.metrics != nil {
		c.metrics.RecordFetch(indicator, code)
	}
	return out, nil
}

// FetchLatest returns the most recent non-null observation. The API returns
// rows newest first, so the first non-null row wins.
func (c *Client) FetchLatest(ctx context.Context, code, indicator string) (models.Observation, bool, error) {
	url := fmt.Sprintf("%s/country/%s/indicator/%s", c.baseURL, code, indicator)
	body, ok := c.fetch(ctx, url)
	if !ok {
		return models.Observation{}, false, nil
	}

	rows, ok := decodeRows(body)
	if !ok {
		c.recordError("decode_latest")
		return models.Observation{}, false, nil
	}

	for _, r := range rows {
		if r.Value == nil {
			continue
		}
		year, err := strconv.Atoi(r.Date)
		if err != nil {
			continue
		}
		if c.metrics != nil {
			c.metrics.RecordFetch(indicator, code)
		}
		return models.Observation{Year: year, Value: *r.Value}, true, nil
	}
	return models.Observation{}, false, nil
}

// Countries lists real countries, dropping aggregate rows (region id "NA").
func (c *Client) Countries(ctx context.Context) ([]models.Country, error) {
	url := fmt.Sprintf("%s/country", c.baseURL)
	body, ok := c.fetch(ctx, url)
	if !ok {
		return nil, fmt.Errorf("worldbank: country listing unavailable")
	}

	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope) < 2 {
		c.recordError("decode_countries")
		return nil, fmt.Errorf("worldbank: malformed country listing")
	}

	var rows []wbCountry
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		c.recordError("decode_countries")
		return nil, fmt.Errorf("worldbank: malformed country rows: %w", err)
	}

	out := make([]models.Country, 0, len(rows))
	for _, r := range rows {
		if r.Region.ID == "NA" {
			continue
		}
		out = append(out, models.Country{Name: r.Name, Code: r.ID, Region: r.Region.Value})
	}
	return out, nil
}

// fetch returns the response body for url, serving from cache when possible.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, bool) {
	key := "wb:" + url
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(key); err == nil && ok {
			if c.metrics != nil {
				c.metrics.RecordCacheHit("worldbank")
			}
			return b, true
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss("worldbank")
		}
	}

	if !c.waitForToken(ctx) {
		c.recordError("throttled")
		return nil, false
	}

	var body []byte
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"format":   {"json"},
			"per_page": {strconv.Itoa(c.perPage)},
		},
	}, &body)
	if c.metrics != nil {
		c.metrics.RecordLatency("worldbank_fetch", time.Since(start).Seconds())
	}
	if err != nil {
		c.recordError("fetch")
		if c.logger != nil {
			c.logger.Warn("worldbank fetch failed", xlogger.String("url", url), xlogger.Error(err))
		}
		return nil, false
	}

	if c.cache != nil {
		_ = c.cache.SetBytes(key, body, c.cacheTTL)
	}
	return body, true
}

// waitForToken blocks briefly until the token bucket admits the request or
// the context ends.
func (c *Client) waitForToken(ctx context.Context) bool {
	for i := 0; i < 40; i++ {
		if c.limiter.Allow("worldbank", c.rps, c.rps) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
	return false
}

func (c *Client) recordError(kind string) {
	if c.metrics != nil {
		c.metrics.RecordError("worldbank_" + kind)
	}
}

// decodeRows unpacks the [metadata, rows] envelope. A body with no data page
// (error envelope, null second element) reports !ok.
func decodeRows(body []byte) ([]wbRow, bool) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope) < 2 {
		return nil, false
	}
	if string(envelope[1]) == "null" {
		return nil, false
	}
	var rows []wbRow
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		return nil, false
	}
	return rows, true
}

var _ drepo.IndicatorSource = (*Client)(nil)
