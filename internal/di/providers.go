package di

import (
	"context"
	"fmt"
	"time"

	"github.com/J-Mash24/worldz1/internal/domain/repository"
	"github.com/J-Mash24/worldz1/internal/handler/api"
	mid "github.com/J-Mash24/worldz1/internal/middleware"
	internalrepo "github.com/J-Mash24/worldz1/internal/repository"
	icache "github.com/J-Mash24/worldz1/internal/service/cache"
	"github.com/J-Mash24/worldz1/internal/service/groups"
	"github.com/J-Mash24/worldz1/internal/service/worldbank"
	"github.com/J-Mash24/worldz1/internal/usecase"
	pkgcache "github.com/J-Mash24/worldz1/pkg/cache"
	pkgch "github.com/J-Mash24/worldz1/pkg/clickhouse"
	"github.com/J-Mash24/worldz1/pkg/config"
	xhttp "github.com/J-Mash24/worldz1/pkg/http"
	pkgkafka "github.com/J-Mash24/worldz1/pkg/kafka"
	applogger "github.com/J-Mash24/worldz1/pkg/logger"
	"github.com/J-Mash24/worldz1/pkg/metrics"
	"github.com/J-Mash24/worldz1/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvidePayloadCache picks the cache for raw indicator payloads: Redis when
// enabled (shared across replicas), in-process TTL cache otherwise.
func ProvidePayloadCache(cfg *config.Config) (icache.BytesCache, error) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "worldz",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rc, nil
}

// ProvideIndicatorSource creates the World Bank API client.
func ProvideIndicatorSource(
	cfg *config.Config,
	payloadCache icache.BytesCache,
	m repository.Metrics,
	logger *applogger.Logger,
) repository.IndicatorSource {
	return worldbank.New(cfg.WorldBank.BaseURL, cfg.WorldBank.Timeout,
		worldbank.WithCache(payloadCache, cfg.WorldBank.CacheTTL),
		worldbank.WithRateLimit(cfg.WorldBank.RateLimit),
		worldbank.WithPerPage(cfg.WorldBank.PerPage),
		worldbank.WithMetrics(m),
		worldbank.WithLogger(logger),
	)
}

// ProvideGroupResolver loads the preset definitions from YAML.
func ProvideGroupResolver(cfg *config.Config) (repository.GroupResolver, error) {
	r, err := groups.LoadResolver(cfg.Groups.File)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	return r, nil
}

// ProvideResultCache creates the cache for computed dashboard results.
func ProvideResultCache(cfg *config.Config) (pkgcache.Service, error) {
	memory := pkgcache.NewMemoryCache(
		pkgcache.WithMemoryMaxSize(10000),
		pkgcache.WithMemoryCleanup(time.Minute),
	)
	if !cfg.Redis.Enabled {
		return memory, nil
	}
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("worldz"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache, pkgcache.WithLayeredMemorySize(10000)), nil
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// snapshot archive schema. ReplacingMergeTree keyed on fetched_at keeps the
// newest observation per (indicator, country, year).
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	table := cfg.ClickHouse.Table
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			indicator String,
			country FixedString(3),
			year Int32,
			value Float64,
			fetched_at DateTime
		) ENGINE=ReplacingMergeTree(fetched_at) ORDER BY (indicator, country, year)`, db, table),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSnapshotStore creates the ClickHouse snapshot archive repository.
func ProvideSnapshotStore(chClient *pkgch.Client, cfg *config.Config) repository.SnapshotStore {
	return internalrepo.NewClickHouseSnapshotStore(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSnapshotPublisher creates the Kafka snapshot publisher repository.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SnapshotPublisher {
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSnapshotProcessor creates the backend router for fetched snapshots.
func ProvideSnapshotProcessor(
	pub repository.SnapshotPublisher,
	store repository.SnapshotStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.SnapshotProcessor {
	return usecase.NewSnapshotProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideSnapshotCollector creates the periodic refresh collector, or nil
// when refresh is disabled.
func ProvideSnapshotCollector(
	source repository.IndicatorSource,
	resolver repository.GroupResolver,
	processor *usecase.SnapshotProcessor,
	resultCache pkgcache.Service,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.SnapshotCollector {
	if !cfg.Refresh.Enabled {
		return nil
	}
	pipe := mid.NewSnapshotPipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewSnapshotCollector(source, resolver, processor, pipe, m, cfg.Refresh.Indicators, cfg.Refresh.Interval,
		usecase.WithRefreshLock(resultCache))
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideSnapshotsHandler registers the handler that archives consumed
// snapshots into ClickHouse.
func ProvideSnapshotsHandler(store repository.SnapshotStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaSnapshotsHandler {
	return usecase.NewKafkaSnapshotsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideDashboard creates the dashboard use case.
func ProvideDashboard(
	source repository.IndicatorSource,
	resolver repository.GroupResolver,
	store repository.SnapshotStore,
	resultCache pkgcache.Service,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.DashboardUseCase {
	return usecase.NewDashboardUseCase(source, resolver,
		usecase.WithSnapshotStore(store),
		usecase.WithResultCache(resultCache, cfg.Dashboard.ResultCacheTTL),
		usecase.WithDashboardMetrics(m),
		usecase.WithFetchWorkers(cfg.Dashboard.FetchWorkers),
	)
}

// ProvideGrowthTicker creates the live population ticker use case.
func ProvideGrowthTicker(source repository.IndicatorSource, cfg *config.Config) *usecase.GrowthTicker {
	return usecase.NewGrowthTicker(source, cfg.Ticker.GlobalBirths, cfg.Ticker.GlobalDeaths)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	logger *applogger.Logger,
	dashboard *usecase.DashboardUseCase,
	ticker *usecase.GrowthTicker,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewDashboardEchoHandler(logger, dashboard, ticker, cfg.Ticker.StreamInterval)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	httpHandler xhttp.Handler,
	collector *usecase.SnapshotCollector,
	processor *usecase.SnapshotProcessor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, logger, httpHandler, collector, processor, consumer, kh, chClient)
}
