package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

// recordingProc counts delivered snapshots and can be toggled to fail.
type recordingProc struct {
	mu       sync.Mutex
	received []*models.Snapshot
	failing  bool
}

func (r *recordingProc) Process(_ context.Context, s *models.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return fmt.Errorf("backend down")
	}
	r.received = append(r.received, s)
	return nil
}

func (r *recordingProc) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func (r *recordingProc) setFailing(f bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = f
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string)          {}
func (noopMetrics) RecordCacheHit(string)               {}
func (noopMetrics) RecordCacheMiss(string)              {}
func (noopMetrics) RecordSnapshotRouted(string, string) {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordLatency(string, float64)       {}

func seriesBatch(n int) []*models.Snapshot {
	batch := make([]*models.Snapshot, n)
	for i := range batch {
		batch[i] = &models.Snapshot{
			Indicator: "SP.POP.TOTL",
			Country:   "SWE",
			Year:      1960 + i,
			Value:     float64(i),
			FetchedAt: time.Now().UTC(),
		}
	}
	return batch
}

func TestPipelineDeliversWholeSeriesUnderRateCap(t *testing.T) {
	proc := &recordingProc{}
	p := NewSnapshotPipeline(proc, noopMetrics{}, WithMaxRPS(5000))

	// A whole annual series submitted back-to-back, far faster than the cap.
	for _, s := range seriesBatch(60) {
		require.NoError(t, p.Process(context.Background(), s))
	}

	assert.Equal(t, 60, proc.count(), "pacing must delay, never drop")
}

func TestPipelinePacesSubmission(t *testing.T) {
	proc := &recordingProc{}
	p := NewSnapshotPipeline(proc, noopMetrics{}, WithMaxRPS(200))

	start := time.Now()
	for _, s := range seriesBatch(5) {
		require.NoError(t, p.Process(context.Background(), s))
	}

	// 5 snapshots at 200/s need at least 4 gaps of 5ms.
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 5, proc.count())
}

func TestPipelineCancelWhileWaiting(t *testing.T) {
	proc := &recordingProc{}
	p := NewSnapshotPipeline(proc, noopMetrics{}, WithMaxRPS(1))

	batch := seriesBatch(2)
	require.NoError(t, p.Process(context.Background(), batch[0]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Process(ctx, batch[1])

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, proc.count())
}

func TestPipelineBuffersWhenBackendDownAndDrains(t *testing.T) {
	proc := &recordingProc{}
	proc.setFailing(true)
	p := NewSnapshotPipeline(proc, noopMetrics{}, WithMaxRPS(5000), WithBufferSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	batch := seriesBatch(3)
	for _, s := range batch {
		require.NoError(t, p.Process(ctx, s))
	}
	assert.Equal(t, 0, proc.count())

	proc.setFailing(false)
	assert.Eventually(t, func() bool {
		return proc.count() == len(batch)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPipelineRejectsInvalidSnapshot(t *testing.T) {
	p := NewSnapshotPipeline(&recordingProc{}, noopMetrics{})

	assert.Error(t, p.Process(context.Background(), nil))
	assert.Error(t, p.Process(context.Background(), &models.Snapshot{Country: "SWE"}))
	assert.Error(t, p.Process(context.Background(), &models.Snapshot{Indicator: "SP.POP.TOTL"}))
}
