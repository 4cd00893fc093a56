package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.Snapshot) error
}

// SnapshotPipeline sits between the refresh collector and the backend
// processor. It paces submission per indicator and buffers snapshots when
// the downstream backend is unavailable, draining with backoff. Pacing
// delays, it never drops: every admitted snapshot reaches the archive.
type SnapshotPipeline struct {
	proc     Proc
	metrics  drepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Snapshot
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-indicator last accepted time
}

type PipelineOption func(*SnapshotPipeline)

// WithMaxRPS sets the max snapshots per second per indicator.
func WithMaxRPS(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the buffer size used when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewSnapshotPipeline creates a new pipeline.
func NewSnapshotPipeline(proc Proc, metrics drepo.Metrics, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   200,
		bufSize:  2000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Snapshot, p.bufSize)
	return p
}

// Start launches background draining of buffered snapshots.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.proc.Process(ctx, s); err != nil {
					p.metrics.RecordError("pipeline_drain")
					// Requeue and back off; drop when the buffer is full.
					select {
					case p.bufCh <- s:
					default:
					}
					time.Sleep(backoff)
					if backoff < 2*time.Second {
						backoff *= 2
					}
					continue
				}
				backoff = 50 * time.Millisecond
			}
		}
	}()
}

// Process validates, paces, and forwards one snapshot, buffering it when
// the backend rejects it.
func (p *SnapshotPipeline) Process(ctx context.Context, s *models.Snapshot) error {
	if s == nil || s.Indicator == "" || s.Country == "" {
		return fmt.Errorf("invalid snapshot")
	}

	if !p.admit(ctx, s.Indicator) {
		return ctx.Err()
	}

	if err := p.proc.Process(ctx, s); err != nil {
		select {
		case p.bufCh <- s:
			return nil
		default:
			p.metrics.RecordError("pipeline_overflow")
			return err
		}
	}
	return nil
}

// admit applies the per-indicator rate cap by waiting for the next slot.
// The collector submits whole annual series back-to-back; dropping over-rate
// snapshots would hole the archive, so the caller blocks instead. Returns
// false only when the context ends while waiting.
func (p *SnapshotPipeline) admit(ctx context.Context, indicator string) bool {
	minGap := time.Second / time.Duration(p.maxRPS)
	for {
		p.mu.Lock()
		now := time.Now()
		last, ok := p.lastSeen[indicator]
		if !ok || now.Sub(last) >= minGap {
			p.lastSeen[indicator] = now
			p.mu.Unlock()
			return true
		}
		wait := minGap - now.Sub(last)
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
}

// Stop terminates the drain loop.
func (p *SnapshotPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}
