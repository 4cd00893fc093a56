package usecase

import (
	"context"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
	"github.com/J-Mash24/worldz1/pkg/util"
)

// Default annual global birth/death counts for the growth extrapolation.
const (
	DefaultGlobalBirths = 140_000_000
	DefaultGlobalDeaths = 60_000_000

	secondsPerYear = 365 * 24 * 3600
	worldCode      = "WLD"
)

// TickerSession is an explicit, immutable session anchor for the live
// estimate. It replaces ambient "page load time" state: the session is
// created once when a client connects and every estimate is derived from
// (session, now) pairs, so the computation stays pure and reproducible.
type TickerSession struct {
	Group     models.Group
	StartedAt time.Time
	rate      float64 // estimated people per second for the group
}

// GrowthTicker estimates live population growth for a group by scaling the
// global net growth rate by the group's share of world population.
type GrowthTicker struct {
	source drepo.IndicatorSource
	births float64
	deaths float64
}

func NewGrowthTicker(source drepo.IndicatorSource, births, deaths float64) *GrowthTicker {
	if births <= 0 {
		births = DefaultGlobalBirths
	}
	if deaths <= 0 {
		deaths = DefaultGlobalDeaths
	}
	return &GrowthTicker{source: source, births: births, deaths: deaths}
}

// StartSession resolves the group's share of world population once and
// fixes the session start. The per-second rate is constant for the session;
// only elapsed time varies between estimates.
func (g *GrowthTicker) StartSession(ctx context.Context, group models.Group, startedAt time.Time) (*TickerSession, error) {
	world, ok, err := g.source.FetchLatest(ctx, worldCode, models.IndicatorPopulation)
	if err != nil {
		return nil, err
	}
	if !ok || world.Value == 0 {
		// Without a world total there is no share to scale by; the session
		// still works, it just reports zero growth.
		return &TickerSession{Group: group, StartedAt: startedAt}, nil
	}

	var total float64
	for _, code := range group.Codes {
		pop, ok, err := g.source.FetchLatest(ctx, code, models.IndicatorPopulation)
		if err != nil || !ok {
			continue
		}
		total += (g.births - g.deaths) * (pop.Value / world.Value)
	}

	return &TickerSession{
		Group:     group,
		StartedAt: startedAt,
		rate:      total / secondsPerYear,
	}, nil
}

// Estimate extrapolates growth linearly from the session start to now.
// now values before the session start clamp to zero.
func (g *GrowthTicker) Estimate(s *TickerSession, now time.Time) models.LiveEstimate {
	elapsed := now.Sub(s.StartedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	estimate := s.rate * elapsed
	return models.LiveEstimate{
		Group:     s.Group.Name,
		Estimate:  estimate,
		PerSecond: s.rate,
		Elapsed:   elapsed,
		At:        now,
		Display:   util.FormatCompact(estimate),
	}
}
