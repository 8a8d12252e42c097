package di

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "TrackBets/internal/repository"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/cache"
	"TrackBets/pkg/config"
	"TrackBets/pkg/logger"
	"TrackBets/pkg/metrics"
)

func TestOptionalBackendsAreUntypedNil(t *testing.T) {
	cfg := config.Default()

	ch, cleanup, err := ProvideEventsClickHouse(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)
	cleanup()

	producer, cleanup, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)
	cleanup()

	assert.True(t, ProvideEventPublisher(nil, cfg) == nil)
	assert.True(t, ProvideEventStorage(nil, cfg) == nil)
	assert.True(t, ProvideFunnelReader(nil, cfg, logger.Nop()) == nil)
	assert.Nil(t, ProvideFunnelIngest(cfg, nil, nil))

	consumer, err := ProvideKafkaConsumer(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, consumer)
}

func TestProvideUserStore(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "storage.json")

	store, cleanup, err := ProvideUserStore(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &internalrepo.FileUserStore{}, store)

	cfg.Storage.Backend = "memory"
	store, cleanup2, err := ProvideUserStore(cfg)
	require.NoError(t, err)
	defer cleanup2()
	assert.IsType(t, &internalrepo.CacheUserStore{}, store)
}

func TestProvideWatcherFactory(t *testing.T) {
	cfg := config.Default()
	m := metrics.New(prometheus.NewRegistry())
	remote := ProvideAnalysisClient(cfg, logger.Nop())

	assert.Nil(t, ProvideWatcherFactory(cfg, remote, m, logger.Nop()))

	cfg.Stream.Enabled = true
	factory := ProvideWatcherFactory(cfg, remote, m, logger.Nop())
	require.NotNil(t, factory)

	w, err := factory("AAPL")
	require.NoError(t, err)
	assert.False(t, w.IsConnected())
}

func TestFallbackSeedIsDeterministic(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Seed = 42

	a := ProvideFallback(cfg).Generate("AAPL")
	b := ProvideFallback(cfg).Generate("AAPL")
	assert.Equal(t, a.PriceData.Price, b.PriceData.Price)
	require.NotNil(t, a.Analysis.TargetPrice)
	require.NotNil(t, b.Analysis.TargetPrice)
	assert.Equal(t, *a.Analysis.TargetPrice, *b.Analysis.TargetPrice)
}

func TestHTTPServerRateLimitSkipsMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit.RPS = 1
	cfg.Server.RateLimit.Burst = 1

	m := metrics.New(prometheus.NewRegistry())
	mc := cache.NewMemoryCache()
	defer mc.Close()

	catalog := analysis.NewCatalog()
	handlers := ProvideHandlers(
		ProvideAnalysisHandler(logger.Nop(), catalog, usecase.NewSearch(catalog, mc, cfg.Server.SearchCacheTTL), m),
		ProvideStreamHandler(cfg, logger.Nop(), catalog, m),
		ProvideFunnelHandler(logger.Nop(), nil),
	)
	srv := ProvideHTTPServer(cfg, logger.Nop(), handlers, ProvideRateLimiter(cfg))

	get := func(path string) int {
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("/api/health"))
	assert.Equal(t, http.StatusTooManyRequests, get("/api/health"))
	assert.Equal(t, http.StatusOK, get("/metrics"))
	assert.Equal(t, http.StatusOK, get("/metrics"))
}

func TestProvideAppWithoutIngest(t *testing.T) {
	cfg := config.Default()
	srv := ProvideHTTPServer(cfg, logger.Nop(), nil, ProvideRateLimiter(cfg))
	assert.NotNil(t, ProvideApp(cfg, logger.Nop(), srv, nil, nil))
}
