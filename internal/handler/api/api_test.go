package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/cache"
	xhttp "TrackBets/pkg/http"
	xlogger "TrackBets/pkg/logger"
	"TrackBets/pkg/metrics"
)

func newTestEcho(t *testing.T, handlers ...xhttp.Handler) *echo.Echo {
	t.Helper()
	e := echo.New()
	xhttp.Handlers(handlers).RegisterRoutes(e)
	return e
}

func newAnalysisHandler(t *testing.T) *AnalysisHandler {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	catalog := analysis.NewCatalog()
	return NewAnalysisHandler(xlogger.Nop(), catalog, usecase.NewSearch(catalog, mc, time.Minute), metrics.New(prometheus.NewRegistry()))
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeFlatShape(t *testing.T) {
	e := newTestEcho(t, newAnalysisHandler(t))

	for _, target := range []string{"/api/analyze?ticker=zomato", "/api/analyze/ZOMATO.NS"} {
		rec := do(e, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)

		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		assert.Equal(t, "ZOMATO.NS", raw["ticker"])
		assert.Equal(t, "catalog", raw["source"])
		assert.Equal(t, true, raw["success"])

		a := raw["analysis"].(map[string]interface{})
		_, isString := a["verdict"].(string)
		assert.True(t, isString, "verdict is a bare signal")
		assert.Contains(t, a, "confidence")
	}
}

func TestAnalyzePost(t *testing.T) {
	e := newTestEcho(t, newAnalysisHandler(t))
	rec := do(e, http.MethodPost, "/api/analyze", `{"ticker":"tsla"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var p models.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "TSLA", p.Ticker)
	assert.Equal(t, models.VerdictFlat, p.Analysis.Verdict.Kind)
}

func TestAnalyzeNestedShapeRoundTrips(t *testing.T) {
	e := newTestEcho(t, newAnalysisHandler(t))
	rec := do(e, http.MethodGet, "/api/analyze?ticker=RELIANCE.NS&format=nested", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p models.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.VerdictNested, p.Analysis.Verdict.Kind)

	res := analysis.Normalize(&p)
	want, ok := analysis.NewCatalog().Lookup("RELIANCE.NS")
	require.True(t, ok)
	assert.Equal(t, want.Analysis, res.Analysis)
}

func TestAnalyzeErrors(t *testing.T) {
	e := newTestEcho(t, newAnalysisHandler(t))

	rec := do(e, http.MethodGet, "/api/analyze?ticker=NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body xhttp.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Could not find stock data for NOPE", body.Error)

	rec = do(e, http.MethodGet, "/api/analyze", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/analyze?ticker=TSLA&format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	e := newTestEcho(t, newAnalysisHandler(t))

	rec := do(e, http.MethodPost, "/api/search", `{"query":"reliance"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "RELIANCE.NS", res.Ticker)
	assert.Equal(t, "NSE", res.Exchange)

	rec = do(e, http.MethodPost, "/api/search", `{"query":"zzzz"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = do(e, http.MethodPost, "/api/search", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMockTickers(t *testing.T) {
	e := newTestEcho(t, newAnalysisHandler(t))

	rec := do(e, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var h models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "TrackBets API", h.Service)
	assert.Contains(t, h.MockTickers, "ZOMATO")

	rec = do(e, http.MethodGet, "/api/mock-tickers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m models.MockTickers
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, []string{"RELIANCE.NS", "TSLA", "ZOMATO.NS"}, m.MockTickers)
}

type fakeReader struct {
	from, to time.Time
	kind     string
	err      error
}

func (f *fakeReader) CountByKind(_ context.Context, from, to time.Time, kind string) ([]models.FunnelCount, error) {
	f.from, f.to, f.kind = from, to, kind
	if f.err != nil {
		return nil, f.err
	}
	return []models.FunnelCount{{Kind: "screen_view", Count: 12}}, nil
}

func TestFunnelCounts(t *testing.T) {
	reader := &fakeReader{}
	h := NewFunnelHandler(xlogger.Nop(), reader)
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	e := newTestEcho(t, h)

	rec := do(e, http.MethodGet, "/api/funnel?kind=screen_view", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var counts []models.FunnelCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, []models.FunnelCount{{Kind: "screen_view", Count: 12}}, counts)
	assert.Equal(t, now, reader.to)
	assert.Equal(t, now.Add(-24*time.Hour), reader.from)
	assert.Equal(t, "screen_view", reader.kind)

	reader.err = errors.New("connection refused")
	rec = do(e, http.MethodGet, "/api/funnel", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(newTestEcho(t, NewFunnelHandler(xlogger.Nop(), nil)), http.MethodGet, "/api/funnel", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStreamSendsTicks(t *testing.T) {
	h := NewStreamHandler(xlogger.Nop(), analysis.NewCatalog(), metrics.New(prometheus.NewRegistry()),
		WithStreamInterval(5*time.Millisecond, time.Hour),
		WithStreamSeed(func() int64 { return 1 }),
	)
	srv := httptest.NewServer(newTestEcho(t, h))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream?ticker=zomato"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for want := uint64(1); want <= 3; want++ {
		var m models.StreamMessage
		require.NoError(t, conn.ReadJSON(&m))
		assert.Equal(t, models.StreamTick, m.Type)
		require.Len(t, m.Data, 1)
		assert.Equal(t, "ZOMATO.NS", m.Data[0].Ticker)
		assert.Equal(t, want, m.Data[0].Seq)
		assert.Positive(t, m.Data[0].Price)
	}
}

func TestStreamRequiresTicker(t *testing.T) {
	h := NewStreamHandler(xlogger.Nop(), analysis.NewCatalog(), metrics.New(prometheus.NewRegistry()))
	rec := do(newTestEcho(t, h), http.MethodGet, "/api/stream", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
