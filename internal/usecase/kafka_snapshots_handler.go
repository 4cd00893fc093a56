package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
	pkgkafka "github.com/J-Mash24/worldz1/pkg/kafka"
)

// KafkaSnapshotsHandler consumes snapshot messages and writes them to the
// ClickHouse archive.
type KafkaSnapshotsHandler struct {
	topic   string
	store   drepo.SnapshotStore
	metrics drepo.Metrics
}

func NewKafkaSnapshotsHandler(topic string, store drepo.SnapshotStore, metrics drepo.Metrics) *KafkaSnapshotsHandler {
	return &KafkaSnapshotsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var s models.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now().UTC()
	}

	start := time.Now()
	if err := h.store.Store(ctx, &s); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	h.metrics.RecordSnapshotRouted("clickhouse", s.Indicator)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)
