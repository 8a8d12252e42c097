package di

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	domrepo "TrackBets/internal/domain/repository"
	dservice "TrackBets/internal/domain/service"
	"TrackBets/internal/handler/api"
	"TrackBets/internal/handler/tui"
	mid "TrackBets/internal/middleware"
	internalrepo "TrackBets/internal/repository"
	"TrackBets/internal/service/pricestream"
	"TrackBets/internal/service/ratelimit"
	"TrackBets/internal/service/trackbets"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/cache"
	pkgch "TrackBets/pkg/clickhouse"
	"TrackBets/pkg/config"
	xhttp "TrackBets/pkg/http"
	"TrackBets/pkg/http/middleware"
	pkgkafka "TrackBets/pkg/kafka"
	"TrackBets/pkg/logger"
	"TrackBets/pkg/metrics"
	"TrackBets/pkg/server"
)

// Client is everything the terminal client and its subcommands need.
type Client struct {
	Config   *config.Config
	Log      *logger.Logger
	Remote   *trackbets.Client
	Analyzer *usecase.Analyzer
	Auth     *usecase.Auth
	Tracker  *usecase.FunnelTracker
	Pipeline *mid.EventPipeline
	Watchers tui.WatcherFactory
}

func NewClient(
	cfg *config.Config,
	l *logger.Logger,
	remote *trackbets.Client,
	analyzer *usecase.Analyzer,
	auth *usecase.Auth,
	tracker *usecase.FunnelTracker,
	pipeline *mid.EventPipeline,
	watchers tui.WatcherFactory,
) *Client {
	return &Client{
		Config:   cfg,
		Log:      l,
		Remote:   remote,
		Analyzer: analyzer,
		Auth:     auth,
		Tracker:  tracker,
		Pipeline: pipeline,
		Watchers: watchers,
	}
}

// ProvideLogger builds the process logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func newRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 5*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideSearchCache picks the API search cache: memory, redis or both.
func ProvideSearchCache(cfg *config.Config) (cache.Service, func(), error) {
	var c cache.Service
	switch cfg.Server.CacheBackend {
	case "redis", "layered":
		rc, err := newRedisCache(cfg)
		if err != nil {
			return nil, nil, err
		}
		c = rc
		if cfg.Server.CacheBackend == "layered" {
			c = cache.NewLayeredCache(rc)
		}
	default:
		c = cache.NewMemoryCache()
	}
	return c, func() { _ = c.Close() }, nil
}

// ProvideUserStore picks where the local account lives.
func ProvideUserStore(cfg *config.Config) (domrepo.UserStore, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		rc, err := newRedisCache(cfg)
		if err != nil {
			return nil, nil, err
		}
		return internalrepo.NewCacheUserStore(rc), func() { _ = rc.Close() }, nil
	case "memory":
		mc := cache.NewMemoryCache()
		return internalrepo.NewCacheUserStore(mc), func() { _ = mc.Close() }, nil
	}
	return internalrepo.NewFileUserStore(cfg.Storage.Path), func() {}, nil
}

func funnelTable(cfg *config.Config) string {
	if cfg.ClickHouse.Database == "" {
		return internalrepo.DefaultFunnelTable
	}
	return cfg.ClickHouse.Database + "." + internalrepo.DefaultFunnelTable
}

func newClickHouse(cfg *config.Config) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}, internalrepo.FunnelSchema(funnelTable(cfg))...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideEventsClickHouse connects only when the client writes funnel
// events straight to ClickHouse.
func ProvideEventsClickHouse(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Events.Backend != usecase.BackendClickHouse {
		return nil, func() {}, nil
	}
	return newClickHouse(cfg)
}

// ProvideFunnelClickHouse connects only when the API ingests funnel events.
func ProvideFunnelClickHouse(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.Server.FunnelIngest {
		return nil, func() {}, nil
	}
	return newClickHouse(cfg)
}

// ProvideKafkaProducer creates a producer when events go through Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Events.Backend != usecase.BackendKafka {
		return nil, func() {}, nil
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
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideEventPublisher is nil unless a producer exists.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideEventStorage is nil unless ClickHouse is connected.
func ProvideEventStorage(ch *pkgch.Client, cfg *config.Config) domrepo.EventStorage {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseEventStorage(ch.DB(), funnelTable(cfg))
}

func ProvideFunnelProcessor(
	cfg *config.Config,
	pub domrepo.EventPublisher,
	store domrepo.EventStorage,
	m domrepo.Metrics,
	l *logger.Logger,
) *usecase.FunnelProcessor {
	return usecase.NewFunnelProcessor(cfg.Events.Backend, pub, store, m, l.With("funnel"))
}

// ProvideEventPipeline starts the background delivery worker; cleanup stops it.
func ProvideEventPipeline(cfg *config.Config, proc *usecase.FunnelProcessor, m domrepo.Metrics) (*mid.EventPipeline, func()) {
	pipe := mid.NewEventPipeline(proc, m,
		mid.WithMaxRPS(cfg.Events.MaxRPS),
		mid.WithBufferSize(cfg.Events.BufferSize),
		mid.WithDrainTimeout(cfg.Events.DrainTimeout),
	)
	pipe.Start(context.Background())
	return pipe, pipe.Stop
}

func ProvideFunnelTracker(pipe *mid.EventPipeline) *usecase.FunnelTracker {
	return usecase.NewFunnelTracker(pipe)
}

func ProvideAnalysisClient(cfg *config.Config, l *logger.Logger) *trackbets.Client {
	return trackbets.NewClient(cfg, l)
}

// ProvideFallback seeds the mock generator from config, or from the clock.
func ProvideFallback(cfg *config.Config) dservice.FallbackSource {
	seed := cfg.Analysis.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return analysis.NewFallbackGenerator(rand.New(rand.NewSource(seed)))
}

func ProvideAnalyzer(
	cfg *config.Config,
	remote domrepo.AnalysisService,
	fallback dservice.FallbackSource,
	m domrepo.Metrics,
	l *logger.Logger,
	tracker *usecase.FunnelTracker,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(remote, fallback,
		usecase.WithFallback(cfg.Analysis.FallbackEnabled),
		usecase.WithAnalyzerMetrics(m),
		usecase.WithAnalyzerLogger(l),
		usecase.WithAnalyzerTracker(tracker),
	)
}

func ProvideAuth(store domrepo.UserStore, tracker *usecase.FunnelTracker, l *logger.Logger) *usecase.Auth {
	return usecase.NewAuth(store, tracker, l)
}

// ProvideWatcherFactory is nil when the live price stream is disabled.
func ProvideWatcherFactory(cfg *config.Config, remote *trackbets.Client, m domrepo.Metrics, l *logger.Logger) tui.WatcherFactory {
	if !cfg.Stream.Enabled {
		return nil
	}
	return func(ticker string) (*usecase.PriceWatcher, error) {
		stream, err := pricestream.New(remote.BaseURL(), ticker,
			pricestream.WithPingInterval(cfg.Stream.PingInterval),
			pricestream.WithLogger(l.With("pricestream")),
		)
		if err != nil {
			return nil, err
		}
		return usecase.NewPriceWatcher(stream, ticker, cfg.Stream.History, cfg.Stream.Interval, m), nil
	}
}

func ProvideSearch(catalog dservice.Catalog, c cache.Service, cfg *config.Config) *usecase.Search {
	return usecase.NewSearch(catalog, c, cfg.Server.SearchCacheTTL)
}

func ProvideAnalysisHandler(l *logger.Logger, catalog *analysis.Catalog, search *usecase.Search, m domrepo.Metrics) *api.AnalysisHandler {
	return api.NewAnalysisHandler(l.With("api"), catalog, search, m)
}

func ProvideStreamHandler(cfg *config.Config, l *logger.Logger, catalog *analysis.Catalog, m domrepo.Metrics) *api.StreamHandler {
	return api.NewStreamHandler(l.With("stream"), catalog, m,
		api.WithStreamInterval(cfg.Stream.Interval, cfg.Stream.PingInterval),
	)
}

// ProvideFunnelReader returns an untyped nil when ClickHouse is off, so the
// handler can tell it is unconfigured.
func ProvideFunnelReader(ch *pkgch.Client, cfg *config.Config, l *logger.Logger) domrepo.FunnelReader {
	if ch == nil {
		return nil
	}
	r := internalrepo.NewCHFunnelReader(ch, funnelTable(cfg))
	r.SetLogger(l.With("funnel-reader"))
	return r
}

func ProvideFunnelHandler(l *logger.Logger, reader domrepo.FunnelReader) *api.FunnelHandler {
	return api.NewFunnelHandler(l.With("api"), reader)
}

func ProvideHandlers(a *api.AnalysisHandler, s *api.StreamHandler, f *api.FunnelHandler) xhttp.Handlers {
	return xhttp.Handlers{a, s, f}
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ProvideHTTPServer builds the echo server; the metrics endpoint is never
// rate limited.
func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, handlers xhttp.Handlers, limiter *ratelimit.Limiter) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l.With("http")),
		xhttp.WithCORS(true),
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		opts = append(opts, xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold))
	}
	if cfg.Server.RateLimit.RPS > 0 {
		opts = append(opts, xhttp.WithMiddleware(middleware.RateLimit(limiter, func(c echo.Context) bool {
			return metricsPath != "" && strings.HasPrefix(c.Path(), metricsPath)
		})))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideKafkaConsumer creates a consumer only when the API ingests funnel events.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Server.FunnelIngest {
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
		pkgkafka.WithConsumerLogger(l.With("kafka-consumer")),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.KeyHook())
	return consumer, nil
}

func ProvideFunnelIngest(cfg *config.Config, store domrepo.EventStorage, m domrepo.Metrics) *usecase.FunnelIngest {
	if store == nil {
		return nil
	}
	return usecase.NewFunnelIngest(cfg.Kafka.Topic, store, m)
}

func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ingest *usecase.FunnelIngest,
) *server.App {
	opts := []server.Option{
		server.WithLogger(l.With("app")),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if consumer != nil && ingest != nil {
		opts = append(opts, server.WithIngest(consumer, ingest))
	}
	return server.New(srv, opts...)
}
