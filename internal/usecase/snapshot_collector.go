package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
	mid "github.com/J-Mash24/worldz1/internal/middleware"
	pkgcache "github.com/J-Mash24/worldz1/pkg/cache"
)

const refreshLeaseKey = "refresh:leader"

// SnapshotCollector periodically refreshes the archive: it fetches the
// configured indicators for every preset member and routes the observations
// to the configured backend through the pipeline.
type SnapshotCollector struct {
	source     drepo.IndicatorSource
	resolver   drepo.GroupResolver
	proc       *SnapshotProcessor
	pipe       *mid.SnapshotPipeline
	metrics    drepo.Metrics
	indicators []string
	interval   time.Duration
	locker     pkgcache.Service

	stopOnce sync.Once
	stopCh   chan struct{}
}

// CollectorOption configures SnapshotCollector.
type CollectorOption func(*SnapshotCollector)

// WithRefreshLock elects a single refresher through a cache lease. With a
// Redis-backed cache this keeps multiple replicas from fetching the same
// data in parallel.
func WithRefreshLock(c pkgcache.Service) CollectorOption {
	return func(sc *SnapshotCollector) {
		sc.locker = c
	}
}

func NewSnapshotCollector(
	source drepo.IndicatorSource,
	resolver drepo.GroupResolver,
	proc *SnapshotProcessor,
	pipe *mid.SnapshotPipeline,
	metrics drepo.Metrics,
	indicators []string,
	interval time.Duration,
	opts ...CollectorOption,
) *SnapshotCollector {
	if interval <= 0 {
		interval = time.Hour
	}
	c := &SnapshotCollector{
		source:     source,
		resolver:   resolver,
		proc:       proc,
		pipe:       pipe,
		metrics:    metrics,
		indicators: indicators,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs an immediate refresh cycle and then ticks at the configured
// interval until the context ends or Shutdown is called.
func (c *SnapshotCollector) Start(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}

	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return nil
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// refresh walks every preset member once per indicator. Members are
// deduplicated across presets so overlapping blocs do not double-fetch.
func (c *SnapshotCollector) refresh(ctx context.Context) {
	if !c.acquireLease(ctx) {
		return
	}

	start := time.Now()

	codes := make(map[string]bool)
	for _, g := range c.resolver.Presets() {
		for _, code := range g.Codes {
			codes[code] = true
		}
	}

	now := time.Now().UTC()
	for _, indicator := range c.indicators {
		for code := range codes {
			if ctx.Err() != nil {
				return
			}
			series, err := c.source.FetchSeries(ctx, code, indicator)
			if err != nil || len(series) == 0 {
				continue
			}
			batch := make([]*models.Snapshot, len(series))
			for i, obs := range series {
				batch[i] = &models.Snapshot{
					Indicator: indicator,
					Country:   code,
					Year:      obs.Year,
					Value:     obs.Value,
					FetchedAt: now,
				}
			}
			if c.pipe != nil {
				for _, s := range batch {
					_ = c.pipe.Process(ctx, s)
				}
			} else if err := c.proc.ProcessBatch(ctx, batch); err != nil {
				c.metrics.RecordError("refresh_batch")
			}
		}
	}

	c.metrics.RecordLatency("refresh_cycle", time.Since(start).Seconds())
}

// acquireLease takes the refresh lease when a locker is configured. The
// lease expires shortly before the next tick so the winner can renew it.
func (c *SnapshotCollector) acquireLease(ctx context.Context) bool {
	if c.locker == nil {
		return true
	}
	ttl := c.interval * 9 / 10
	ok, err := c.locker.TryLock(ctx, refreshLeaseKey, ttl)
	if err != nil {
		// Lock backend down: refresh anyway, duplicate work beats none.
		return true
	}
	return ok
}

// Shutdown stops the pipeline and the refresh loop, releasing the refresh
// lease so another replica can take over.
func (c *SnapshotCollector) Shutdown(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.pipe != nil {
		c.pipe.Stop()
	}
	if c.locker != nil {
		_ = c.locker.Unlock(ctx, refreshLeaseKey)
	}
	return nil
}
