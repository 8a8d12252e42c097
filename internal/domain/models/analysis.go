package models

import (
	"strings"
	"time"
)

// Verdict signals. Other values coming from a remote service are kept
// upper-cased.
const (
	SignalBuy        = "BUY"
	SignalSell       = "SELL"
	SignalHold       = "HOLD"
	SignalWait       = "WAIT"
	SignalStrongBuy  = "STRONG BUY"
	SignalStrongSell = "STRONG SELL"
)

// Result sources.
const (
	SourceLive    = "live"
	SourceMock    = "mock"
	SourceCatalog = "catalog"
	SourceError   = "error"
)

type Verdict struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

type Flashcard struct {
	Title         string   `json:"title"`
	Reasons       []string `json:"reasons"`
	KeyDataPoints []string `json:"key_data_points,omitempty"`
}

type PriceData struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	IsUp          bool    `json:"is_up"`
	Currency      string  `json:"currency,omitempty"`
	Name          string  `json:"name,omitempty"`
	MarketCap     float64 `json:"market_cap,omitempty"`
	Volume        float64 `json:"volume,omitempty"`
	High52        float64 `json:"52_week_high,omitempty"`
	Low52         float64 `json:"52_week_low,omitempty"`
}

type Analysis struct {
	Verdict       Verdict    `json:"verdict"`
	Action        string     `json:"action"`
	TargetPrice   *float64   `json:"target_price"`
	Timeframe     string     `json:"timeframe"`
	RiskLevel     string     `json:"risk_level"`
	AIExplanation string     `json:"ai_explanation"`
	Reasons       []string   `json:"reasons"`
	Flashcard     *Flashcard `json:"flashcard,omitempty"`
}

// AnalysisResult is the canonical analysis shape the client renders. Its
// JSON encoding is the nested wire shape.
type AnalysisResult struct {
	Ticker    string    `json:"ticker"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	PriceData PriceData `json:"price_data"`
	Analysis  Analysis  `json:"analysis"`
	News      string    `json:"news,omitempty"`
	Social    string    `json:"social,omitempty"`
}

// IsMock reports whether the result is fabricated fallback data.
func (r *AnalysisResult) IsMock() bool {
	return r != nil && r.Source == SourceMock
}

// Clone returns a deep copy.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Analysis.TargetPrice != nil {
		tp := *r.Analysis.TargetPrice
		out.Analysis.TargetPrice = &tp
	}
	if r.Analysis.Reasons != nil {
		out.Analysis.Reasons = append([]string{}, r.Analysis.Reasons...)
	}
	if r.Analysis.Flashcard != nil {
		fc := *r.Analysis.Flashcard
		if fc.Reasons != nil {
			fc.Reasons = append([]string{}, fc.Reasons...)
		}
		if fc.KeyDataPoints != nil {
			fc.KeyDataPoints = append([]string{}, fc.KeyDataPoints...)
		}
		out.Analysis.Flashcard = &fc
	}
	return &out
}

// SocialLines splits the social digest into at most n display lines,
// dropping list numbering and lines too short to be a post.
func (r *AnalysisResult) SocialLines(n int) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(r.Social, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		if i := strings.Index(line, ". "); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+2:])
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
