package trackbets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrackBets/internal/domain/models"
	"TrackBets/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL + "/"
	return NewClient(cfg, nil)
}

func TestClient_Analyze(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		assert.Equal(t, "TSLA", r.URL.Query().Get("ticker"))
		_, _ = w.Write([]byte(`{"success":true,"ticker":"TSLA","source":"live","analysis":{"verdict":"BUY","confidence":78}}`))
	})

	p, err := c.Analyze(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "BUY", p.Analysis.Verdict.Signal)
	assert.Equal(t, models.VerdictFlat, p.Analysis.Verdict.Kind)
}

func TestClient_AnalyzeFailureMarker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"ticker":"X","source":"error","analysis":{"verdict":"HOLD"}}`))
	})

	p, err := c.Analyze(context.Background(), "X")
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	require.NotNil(t, p)
}

func TestClient_AnalyzeNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Could not find stock data for NOPE"})
	})

	_, err := c.Analyze(context.Background(), "NOPE")
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.StatusCode)
	assert.Equal(t, "Could not find stock data for NOPE", re.Message)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req models.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Query == "tesla" {
			_, _ = w.Write([]byte(`{"ticker":"TSLA","name":"Tesla, Inc.","exchange":"NASDAQ"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"No match"}`))
	})

	got, err := c.Search(context.Background(), "tesla")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", got.Ticker)

	_, err = c.Search(context.Background(), "zzz")
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "No match", re.Message)
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","mock_tickers_available":["TSLA"]}`))
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, []string{"TSLA"}, h.MockTickers)
}

func TestNewClient_DefaultBase(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = ""
	assert.Equal(t, DefaultBaseURL, NewClient(cfg, nil).BaseURL())
}
