package di

import (
	"context"
	"fmt"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/repository"
	"github.com/foreverwb/volatility-analysis/internal/handler/api"
	internalrepo "github.com/foreverwb/volatility-analysis/internal/repository"
	"github.com/foreverwb/volatility-analysis/internal/service/marketdata"
	"github.com/foreverwb/volatility-analysis/internal/usecase"
	"github.com/foreverwb/volatility-analysis/pkg/cache"
	pkgch "github.com/foreverwb/volatility-analysis/pkg/clickhouse"
	"github.com/foreverwb/volatility-analysis/pkg/config"
	xhttp "github.com/foreverwb/volatility-analysis/pkg/http"
	pkgkafka "github.com/foreverwb/volatility-analysis/pkg/kafka"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
	"github.com/foreverwb/volatility-analysis/pkg/metrics"
	"github.com/foreverwb/volatility-analysis/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// ProvideRedisCache creates a Redis cache connection when the history backend
// requires one. Returns nil (no connection attempted) for the memory backend.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.History.Backend != "redis" {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache builds the cache used for the VIX quote: layered over Redis
// when available, in-process memory otherwise.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(rc)
}

// ProvideHistoryStore selects the rolling-history backend.
func ProvideHistoryStore(cfg *config.Config, rc *cache.RedisCache) repository.HistoryStore {
	if rc != nil {
		return internalrepo.NewRedisHistoryStore(rc.Client(), cfg.Redis.Prefix)
	}
	return internalrepo.NewMemoryHistoryStore()
}

// ProvideResultStore creates the ClickHouse-backed result store, or a no-op
// when persistence is disabled.
func ProvideResultStore(cfg *config.Config, log *applogger.Logger) (repository.ResultStore, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NoopResultStore{}, nil
	}

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

	store := internalrepo.NewClickHouseResultStore(client)
	store.SetLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return store, nil
}

// ProvidePublisher creates the Kafka result publisher, or a no-op when
// publishing is disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}

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

	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideVIXProvider creates the cached VIX quote source.
func ProvideVIXProvider(cfg *config.Config, cacheSvc cache.Service, log *applogger.Logger) *marketdata.VIXProvider {
	return marketdata.NewVIXProvider(marketdata.Config{
		SourceURL: cfg.VIX.SourceURL,
		APIKey:    cfg.VIX.APIKey,
		Timeout:   cfg.VIX.Timeout,
		CacheTTL:  cfg.VIX.CacheTTL,
		Fallback:  cfg.VIX.Fallback,
	}, cacheSvc, log)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAnalyzer creates the scoring pipeline use case.
func ProvideAnalyzer(
	cfg *config.Config,
	history repository.HistoryStore,
	results repository.ResultStore,
	pub repository.Publisher,
	vix *marketdata.VIXProvider,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(cfg, history, results, pub, vix, m, log)
}

// ProvideHandler creates the HTTP route handler.
func ProvideHandler(analyzer *usecase.Analyzer, results repository.ResultStore, log *applogger.Logger) xhttp.Handler {
	return api.NewAnalyzeHandler(analyzer, results, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	history repository.HistoryStore,
	results repository.ResultStore,
	pub repository.Publisher,
	vix *marketdata.VIXProvider,
	log *applogger.Logger,
) *server.App {
	// When Kafka is available, ship aggregated error logs alongside results.
	if kp, ok := pub.(*internalrepo.KafkaResultPublisher); ok {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      kp,
		})
	}
	return server.New(cfg, handler, history, results, pub, vix, log)
}
