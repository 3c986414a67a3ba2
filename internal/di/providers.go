package di

import (
	"context"
	"fmt"
	"time"

	agentcal "MarketSentry/internal/agent/calendar"
	"MarketSentry/internal/agent/chainflow"
	"MarketSentry/internal/agent/sentiment"
	"MarketSentry/internal/connector/arkham"
	evcal "MarketSentry/internal/connector/calendar"
	"MarketSentry/internal/connector/dune"
	"MarketSentry/internal/connector/exchange"
	"MarketSentry/internal/connector/grok"
	domrepo "MarketSentry/internal/domain/repository"
	domsvc "MarketSentry/internal/domain/service"
	"MarketSentry/internal/fusion"
	"MarketSentry/internal/handler/api"
	"MarketSentry/internal/knowledge"
	mid "MarketSentry/internal/middleware"
	internalrepo "MarketSentry/internal/repository"
	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/service/ratelimit"
	"MarketSentry/internal/usecase"
	pkgcache "MarketSentry/pkg/cache"
	pkgch "MarketSentry/pkg/clickhouse"
	"MarketSentry/pkg/config"
	xhttp "MarketSentry/pkg/http"
	pkgkafka "MarketSentry/pkg/kafka"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/metrics"
	pkgqueue "MarketSentry/pkg/queue"
	"MarketSentry/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
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

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
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

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideHTTPClient creates the shared connector HTTP client.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	timeout := cfg.Connectors.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return xhttp.NewClient(xhttp.WithTimeout(timeout))
}

// ProvideTTLCache creates the in-process connector response cache.
func ProvideTTLCache() *icache.TTLCache {
	return icache.NewTTLCache()
}

// ProvideRateLimiter creates the shared per-vendor rate limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	rps := cfg.Connectors.MaxRPS
	if rps <= 0 {
		rps = 2
	}
	return ratelimit.New(rps, 1)
}

// ProvideChainSource creates the Arkham transfer connector.
func ProvideChainSource(cfg *config.Config, lgr *applogger.Logger, hc *xhttp.Client, tc *icache.TTLCache, rl *ratelimit.Limiter) domrepo.ChainSource {
	return arkham.New(lgr, cfg.Connectors.Arkham.BaseURL, cfg.Connectors.Arkham.APIKey, hc,
		arkham.WithCache(tc, cfg.Connectors.CacheTTL),
		arkham.WithLimiter(rl),
		arkham.WithRetryMax(cfg.Connectors.RetryMax),
	)
}

// ProvideFlowSource creates the Dune netflow connector.
func ProvideFlowSource(cfg *config.Config, lgr *applogger.Logger, hc *xhttp.Client, tc *icache.TTLCache, rl *ratelimit.Limiter) domrepo.FlowSource {
	return dune.New(lgr, cfg.Connectors.Dune.BaseURL, cfg.Connectors.Dune.APIKey, hc,
		dune.WithCache(tc, cfg.Connectors.CacheTTL),
		dune.WithLimiter(rl),
		dune.WithRetryMax(cfg.Connectors.RetryMax),
	)
}

// ProvideSocialSource creates the Grok live-search connector.
func ProvideSocialSource(cfg *config.Config, lgr *applogger.Logger, hc *xhttp.Client, tc *icache.TTLCache, rl *ratelimit.Limiter) domrepo.SocialSource {
	return grok.New(lgr, cfg.Connectors.Grok.BaseURL, cfg.Connectors.Grok.APIKey, hc,
		grok.WithCache(tc, cfg.Connectors.CacheTTL),
		grok.WithLimiter(rl),
		grok.WithRetryMax(cfg.Connectors.RetryMax),
	)
}

// ProvideEventSource creates the macro calendar source.
func ProvideEventSource(cfg *config.Config) domrepo.EventSource {
	return evcal.New(cfg.Connectors.CalendarFile)
}

// ProvideFeatureStore creates the ClickHouse candle reader.
func ProvideFeatureStore(ch *pkgch.Client, lgr *applogger.Logger) domrepo.FeatureStore {
	store := internalrepo.NewCHFeatureStore(ch)
	store.SetLogger(lgr)
	return store
}

// ProvideAssessmentStore creates the risk and intervention store.
func ProvideAssessmentStore(ch *pkgch.Client) domrepo.AssessmentStore {
	return internalrepo.NewCHAssessmentStore(ch)
}

// ProvidePrecedentStore creates the precedent store and seeds the
// documented episode library.
func ProvidePrecedentStore(ch *pkgch.Client) (domrepo.PrecedentStore, error) {
	store := internalrepo.NewCHPrecedentStore(ch)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Ensure(ctx, knowledge.Seed()); err != nil {
		return nil, fmt.Errorf("seed precedents: %w", err)
	}
	return store, nil
}

// ProvideTickStorage creates ClickHouse raw tick storage.
func ProvideTickStorage(ch *pkgch.Client, cfg *config.Config) domrepo.TickStorage {
	return internalrepo.NewClickHouseTickStorage(ch.DB(), cfg.ClickHouse.Database+".ticks_raw")
}

// ProvideTickPublisher creates the Kafka tick publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.TickPublisher {
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideExchangeStream creates the exchange WebSocket stream.
func ProvideExchangeStream(cfg *config.Config) domrepo.TickStream {
	return exchange.New(
		cfg.Exchange.APIKey,
		cfg.Exchange.WebSocketURL,
		cfg.Exchange.Symbols,
		cfg.Exchange.ReconnectDelay,
		cfg.Exchange.PingInterval,
	)
}

// ProvideTickProcessor creates the tick routing use case.
func ProvideTickProcessor(pub domrepo.TickPublisher, store domrepo.TickStorage, m domrepo.Metrics, cfg *config.Config) *usecase.TickProcessor {
	return usecase.NewTickProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideTickCollector creates the stream collector use case.
func ProvideTickCollector(stream domrepo.TickStream, proc *usecase.TickProcessor, m domrepo.Metrics) *usecase.TickCollector {
	return usecase.NewTickCollector(stream, proc, m)
}

// ProvideKafkaTicksHandler registers the handler for the ticks topic.
func ProvideKafkaTicksHandler(store domrepo.TickStorage, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, store, m)
}

// ProvideAgents creates the detection agent set.
func ProvideAgents() []domsvc.Agent {
	return []domsvc.Agent{
		chainflow.New(),
		sentiment.New(),
		agentcal.New(),
	}
}

// ProvideFusionEngine creates the fusion engine, which also serves as the
// intervention decider.
func ProvideFusionEngine(cfg *config.Config) *fusion.Engine {
	return fusion.New(cfg.Detection.MinSimilarity,
		fusion.WithConfidenceGate(cfg.Detection.ConfidenceGate))
}

// ProvideRedisCache creates the Redis cache when enabled, nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithAddr(cfg.Redis.Addr),
		pkgcache.WithAuth(cfg.Redis.Password, cfg.Redis.DB),
		pkgcache.WithPrefix("sentry"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCacheService selects the response cache backend.
func ProvideCacheService(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return rc
	}
	return pkgcache.NewMemoryCache()
}

// ProvideNotifyQueue creates the intervention fan-out queue when Redis is
// enabled. It reuses the cache's Redis connection.
func ProvideNotifyQueue(cfg *config.Config, lgr *applogger.Logger, hc *xhttp.Client, rc *pkgcache.RedisCache) *pkgqueue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := pkgqueue.NewRedisQueue(lgr, &pkgqueue.QueueConfig{
		Workers:    cfg.Notify.Workers,
		RetryLimit: cfg.Notify.RetryLimit,
		RetryDelay: cfg.Notify.RetryDelay,
	}, rc.Client())
	q.RegisterJob(usecase.NewNotifyJob(cfg.Notify.WebhookURL, hc, lgr))
	return q
}

// ProvideAlertPublisher creates the Kafka intervention publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertsTopic)
}

// ProvideAlertGate creates the intervention delivery gate.
func ProvideAlertGate(pub domrepo.AlertPublisher, store domrepo.AssessmentStore, m domrepo.Metrics, q *pkgqueue.RedisQueue, cfg *config.Config) *mid.AlertGate {
	opts := []mid.GateOption{mid.WithCooldown(cfg.Detection.AlertCooldown)}
	if q != nil {
		opts = append(opts, mid.WithNotifier(q, usecase.NotifyJobType))
	}
	return mid.NewAlertGate(pub, store, m, opts...)
}

// ProvideContextBuilder assembles the per-asset context builder.
func ProvideContextBuilder(
	features domrepo.FeatureStore,
	chain domrepo.ChainSource,
	flow domrepo.FlowSource,
	social domrepo.SocialSource,
	events domrepo.EventSource,
	lgr *applogger.Logger,
) *usecase.ContextBuilder {
	return usecase.NewContextBuilder(features, chain, flow, social, events, lgr)
}

// ProvideMonitor creates the detection loop.
func ProvideMonitor(
	cfg *config.Config,
	builder *usecase.ContextBuilder,
	agents []domsvc.Agent,
	engine *fusion.Engine,
	gate *mid.AlertGate,
	precedents domrepo.PrecedentStore,
	store domrepo.AssessmentStore,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(
		usecase.MonitorConfig{
			Assets:         cfg.Detection.Assets,
			Interval:       cfg.Detection.Interval,
			Window:         cfg.Detection.Window,
			AgentTimeout:   cfg.Detection.AgentTimeout,
			PrecedentLimit: cfg.Detection.PrecedentLimit,
		},
		builder, agents, engine, engine, precedents, store, gate, m, lgr,
	)
}

// ProvideSentryHandler creates the HTTP handler with response caching.
func ProvideSentryHandler(
	cfg *config.Config,
	lgr *applogger.Logger,
	monitor *usecase.Monitor,
	precedents domrepo.PrecedentStore,
	store domrepo.AssessmentStore,
	cacheSvc pkgcache.Service,
) *api.SentryEchoHandler {
	h := api.NewSentryEchoHandler(lgr, monitor, precedents, store)
	ttl := cfg.Detection.Interval
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	h.SetCache(cacheSvc, ttl)
	return h
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// Publisher contract.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	producer *pkgkafka.Producer,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	monitor *usecase.Monitor,
	gate *mid.AlertGate,
	q *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	handler *api.SentryEchoHandler,
) *server.App {
	handler.SetHealthCheck(collector.IsConnected)

	// outside development, warn/error logs aggregate to Kafka for triage
	if cfg.Environment != "development" && cfg.Kafka.LogsTopic != "" {
		lgr.WithCollector(applogger.NewLogCollector(&applogger.CollectionConfig{
			TimeInterval:   time.Minute,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      kafkaLogPublisher{producer: producer},
		}))
	}

	return server.New(cfg, lgr, collector, consumer, kh, monitor, gate, q, chClient, handler)
}
