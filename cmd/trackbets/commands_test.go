package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/usecase"
)

func TestPrintResultMock(t *testing.T) {
	target := 180.5
	out := usecase.Outcome{
		Notice: "connection refused",
		Result: &models.AnalysisResult{
			Ticker: "AAPL",
			Source: models.SourceMock,
			PriceData: models.PriceData{
				Price:         172.4,
				ChangePercent: -1.25,
			},
			Analysis: models.Analysis{
				Verdict:     models.Verdict{Signal: models.SignalBuy, Confidence: 81},
				TargetPrice: &target,
				Reasons:     []string{"Strong services growth"},
			},
		},
	}

	var buf bytes.Buffer
	printResult(&buf, out)
	got := buf.String()

	assert.Contains(t, got, "MOCK DATA")
	assert.Contains(t, got, "live analysis unavailable: connection refused")
	assert.Contains(t, got, "AAPL  $172.40  ▼ 1.25%")
	assert.Contains(t, got, "BUY  confidence 81%")
	assert.Contains(t, got, "target $180.50")
	assert.Contains(t, got, "• Strong services growth")
	assert.NotContains(t, got, "timeframe")
}

func TestPrintResultLive(t *testing.T) {
	out := usecase.Outcome{Result: &models.AnalysisResult{
		Ticker:    "RELIANCE.NS",
		Source:    models.SourceLive,
		PriceData: models.PriceData{Price: 2950, ChangePercent: 0.8, IsUp: true},
		Analysis: models.Analysis{
			Verdict:   models.Verdict{Signal: models.SignalHold, Confidence: 64},
			RiskLevel: "Medium",
		},
	}}

	var buf bytes.Buffer
	printResult(&buf, out)
	got := buf.String()

	assert.NotContains(t, got, "MOCK DATA")
	assert.Contains(t, got, "RELIANCE.NS  ₹2950.00  ▲ 0.80%")
	assert.Contains(t, got, "timeframe -  risk Medium")
}

func TestPrintHit(t *testing.T) {
	var buf bytes.Buffer
	printHit(&buf, &models.SearchResult{Ticker: "TSLA", Name: "Tesla, Inc.", Exchange: "NASDAQ"})
	printHit(&buf, &models.SearchResult{Ticker: "BTC", Name: "Bitcoin"})
	assert.Equal(t, "TSLA  Tesla, Inc. (NASDAQ)\nBTC  Bitcoin\n", buf.String())
}
