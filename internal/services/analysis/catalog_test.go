package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrackBets/internal/domain/models"
)

func TestCatalog_AliasResolves(t *testing.T) {
	c := NewCatalog()

	r, ok := c.Lookup("zomato")
	require.True(t, ok)
	assert.Equal(t, "ZOMATO.NS", r.Ticker)
	assert.Equal(t, "BUY", r.Analysis.Verdict.Signal)
	assert.Equal(t, 87.0, r.Analysis.Verdict.Confidence)
	assert.Equal(t, models.SourceCatalog, r.Source)

	_, ok = c.Lookup("NOPE")
	assert.False(t, ok)
}

func TestCatalog_FlatWireShape(t *testing.T) {
	p, ok := NewCatalog().Flat("RELIANCE.NS")
	require.True(t, ok)

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	analysis := raw["analysis"].(map[string]interface{})
	assert.Equal(t, "HOLD", analysis["verdict"])
	assert.Equal(t, 72.0, analysis["confidence"])
	assert.Equal(t, 3100.0, analysis["target_price"])
	assert.Equal(t, true, raw["success"])
	assert.Equal(t, "catalog", raw["source"])
}

func TestCatalog_Search(t *testing.T) {
	c := NewCatalog()

	cases := []struct {
		query  string
		ticker string
		found  bool
	}{
		{query: "tsla", ticker: "TSLA", found: true},
		{query: "zomato", ticker: "ZOMATO.NS", found: true},
		{query: "reliance ind", ticker: "RELIANCE.NS", found: true},
		{query: "tesla", ticker: "TSLA", found: true},
		{query: "paytm", found: false},
		{query: "  ", found: false},
	}

	for _, tc := range cases {
		got, ok := c.Search(tc.query)
		assert.Equal(t, tc.found, ok, tc.query)
		if tc.found {
			assert.Equal(t, tc.ticker, got.Ticker, tc.query)
			assert.NotEmpty(t, got.Exchange)
		}
	}
}

func TestCatalog_Tickers(t *testing.T) {
	c := NewCatalog()
	assert.Equal(t, []string{"RELIANCE.NS", "TSLA", "ZOMATO.NS"}, c.Tickers())
	assert.Equal(t, []string{"RELIANCE.NS", "TSLA", "ZOMATO", "ZOMATO.NS"}, c.Keys())
}
