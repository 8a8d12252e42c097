package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONDecodesAndSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TSLA", r.URL.Query().Get("ticker"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "trackbets/1", r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(map[string]string{"ticker": "TSLA"})
	}))
	defer srv.Close()

	var out struct {
		Ticker string `json:"ticker"`
	}
	c := NewClient(WithTimeout(time.Second))
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, url.Values{"ticker": {"TSLA"}}, &out))
	assert.Equal(t, "TSLA", out.Ticker)
}

func TestDoStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"ticker not found"}`))
	}))
	defer srv.Close()

	err := NewClient().GetJSON(context.Background(), srv.URL, nil, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.JSONEq(t, `{"error":"ticker not found"}`, string(se.Body))
}

func TestPostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "tesla", in["query"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient().PostJSON(context.Background(), srv.URL, map[string]string{"query": "tesla"}, nil)
	require.NoError(t, err)
}

func TestDoTransportFailure(t *testing.T) {
	c := NewClient(WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})))
	err := c.GetJSON(context.Background(), "http://unreachable.invalid/api/health", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "GET http://unreachable.invalid/api/health")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
