package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"TrackBets/internal/domain/models"
)

// Fallback template values.
const (
	FallbackSignal     = models.SignalStrongBuy
	FallbackConfidence = 92.0
	MockModeSuffix     = " (Mock Mode)"
	MockBanner         = "MOCK DATA"
)

// FallbackGenerator fabricates a clearly labelled result when the remote
// service is unavailable. It never reuses a previous live result.
type FallbackGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

type FallbackOption func(*FallbackGenerator)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) FallbackOption {
	return func(g *FallbackGenerator) { g.now = now }
}

// NewFallbackGenerator creates a generator. A nil rnd is seeded from the clock.
func NewFallbackGenerator(rnd *rand.Rand, opts ...FallbackOption) *FallbackGenerator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &FallbackGenerator{rnd: rnd, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the mock template for ticker with a random display price
// in [0, 1000) and a target 15% above it.
func (g *FallbackGenerator) Generate(ticker string) *models.AnalysisResult {
	g.mu.Lock()
	cents := g.rnd.Intn(100000)
	change := float64(g.rnd.Intn(1001)-500) / 100
	g.mu.Unlock()

	price := float64(cents) / 100
	target := round2(price * 1.15)
	reasons := []string{
		MockBanner + ": the live analysis service could not be reached",
		"Template verdict shown for demonstration only",
		"Retry to request a live analysis",
	}

	return &models.AnalysisResult{
		Ticker:    ticker,
		Source:    models.SourceMock,
		Timestamp: g.now().UTC(),
		PriceData: models.PriceData{
			Price:         price,
			ChangePercent: change,
			IsUp:          change > 0,
			Currency:      CurrencyFor(ticker),
			Name:          ticker + MockModeSuffix,
		},
		Analysis: models.Analysis{
			Verdict:       models.Verdict{Signal: FallbackSignal, Confidence: FallbackConfidence},
			Action:        fmt.Sprintf("%s position recommended", FallbackSignal),
			TargetPrice:   &target,
			Timeframe:     DefaultTimeframe,
			RiskLevel:     DefaultRiskLevel,
			AIExplanation: MockBanner + ". The analysis service is unavailable, so this verdict is a fixed template with a randomised price. Do not trade on it.",
			Reasons:       reasons,
			Flashcard: &models.Flashcard{
				Title:   FallbackSignal + " signal" + MockModeSuffix,
				Reasons: append([]string{}, reasons...),
			},
		},
		News:   "1. [TrackBets] Live news is unavailable in mock mode",
		Social: "1. [TrackBets] (Mock) Social sentiment is unavailable in mock mode",
	}
}

// CurrencyFor returns the rupee sign for NSE/BSE listings and dollars otherwise.
func CurrencyFor(ticker string) string {
	t := strings.ToUpper(ticker)
	if strings.Contains(t, ".NS") || strings.Contains(t, ".BO") {
		return "₹"
	}
	return "$"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
