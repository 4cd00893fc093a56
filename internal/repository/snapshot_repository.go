package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	"github.com/J-Mash24/worldz1/internal/domain/repository"
	pkgkafka "github.com/J-Mash24/worldz1/pkg/kafka"
)

// ClickHouseSnapshotStore implements SnapshotStore on the archive table.
// The table is a ReplacingMergeTree keyed by (indicator, country, year) with
// fetched_at as the version column, so re-fetches overwrite stale rows.
type ClickHouseSnapshotStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSnapshotStore creates ClickHouse snapshot storage.
func NewClickHouseSnapshotStore(db *sql.DB, table string) repository.SnapshotStore {
	return &ClickHouseSnapshotStore{db: db, table: table}
}

func (s *ClickHouseSnapshotStore) Store(ctx context.Context, snap *models.Snapshot) error {
	q := fmt.Sprintf("INSERT INTO %s (indicator, country, year, value, fetched_at) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		snap.Indicator,
		snap.Country,
		snap.Year,
		snap.Value,
		snap.FetchedAt,
	)
	return err
}

func (s *ClickHouseSnapshotStore) StoreBatch(ctx context.Context, snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips, chunked.
	const chunkSize = 2000
	for start := 0; start < len(snaps); start += chunkSize {
		end := start + chunkSize
		if end > len(snaps) {
			end = len(snaps)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, snap := range snaps[start:end] {
			if snap == nil || snap.Indicator == "" || snap.Country == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				snap.Indicator,
				snap.Country,
				snap.Year,
				snap.Value,
				snap.FetchedAt,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (indicator, country, year, value, fetched_at) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// QuerySeries reads one country's archived series, newest fetch winning per
// year, sorted ascending.
func (s *ClickHouseSnapshotStore) QuerySeries(ctx context.Context, code, indicator string) (models.Series, error) {
	q := fmt.Sprintf("SELECT year, argMax(value, fetched_at) FROM %s WHERE country = ? AND indicator = ? GROUP BY year", s.table)
	rows, err := s.db.QueryContext(ctx, q, code, indicator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series models.Series
	for rows.Next() {
		var obs models.Observation
		if err := rows.Scan(&obs.Year, &obs.Value); err != nil {
			return nil, err
		}
		series = append(series, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series, nil
}

func (s *ClickHouseSnapshotStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSnapshotStore) Close() error {
	return nil // connection pool managed by pkg/clickhouse
}

// KafkaSnapshotPublisher implements SnapshotPublisher for Kafka.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSnapshotPublisher creates a Kafka publisher.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) repository.SnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	return p.producer.Publish(ctx, p.topic, snapshotKey(s), s)
}

func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(snaps))
	for i, s := range snaps {
		msgs[i] = pkgkafka.Message{Key: snapshotKey(s), Value: s}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// snapshotKey partitions by indicator+country so one country's history stays
// ordered within a partition.
func snapshotKey(s *models.Snapshot) []byte {
	return []byte(s.Indicator + ":" + s.Country)
}
