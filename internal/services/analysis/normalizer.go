package analysis

import (
	"fmt"
	"strings"
	"time"

	"TrackBets/internal/domain/models"
	"TrackBets/pkg/util"
)

// Defaults filled into flat payloads.
const (
	DefaultSignal      = models.SignalHold
	DefaultConfidence  = 50.0
	DefaultTimeframe   = "Medium-term"
	DefaultRiskLevel   = "MEDIUM"
	DefaultExplanation = "No detailed explanation was provided for this verdict."
	DefaultReason      = "Verdict derived from the latest market snapshot"
)

// Normalize converts any received payload into the canonical nested result.
// A nested verdict is passed through; a flat verdict is rewritten into the
// nested shape with defaults for every absent field. Normalizing the JSON
// encoding of a result yields the same result.
func Normalize(p *models.Payload) *models.AnalysisResult {
	if p == nil {
		p = &models.Payload{}
	}

	out := &models.AnalysisResult{
		Ticker:    p.Ticker,
		Source:    p.Source,
		Timestamp: util.ParseTimeDefault(p.Timestamp, time.Time{}),
		News:      string(p.News),
		Social:    string(p.Social),
	}
	if out.Source == "" {
		out.Source = models.SourceLive
	}
	if p.PriceData != nil {
		out.PriceData = *p.PriceData
	}
	if out.PriceData.Currency == "" {
		out.PriceData.Currency = p.Currency
	}
	out.PriceData.IsUp = out.PriceData.IsUp || out.PriceData.ChangePercent > 0

	if p.Analysis.Verdict.Kind == models.VerdictNested {
		out.Analysis = passThrough(&p.Analysis)
	} else {
		out.Analysis = expandFlat(&p.Analysis)
	}
	return out
}

func passThrough(a *models.PayloadAnalysis) models.Analysis {
	conf := a.Verdict.Confidence
	if conf == nil {
		conf = a.Confidence.Ptr()
	}
	action := a.Action
	if action == nil {
		action = a.Verdict.Action
	}

	return models.Analysis{
		Verdict: models.Verdict{
			Signal:     normalizeSignal(a.Verdict.Signal),
			Confidence: clampConfidence(deref(conf, 0)),
		},
		Action:        derefString(action, ""),
		TargetPrice:   a.TargetPrice.Ptr(),
		Timeframe:     derefString(a.Timeframe, ""),
		RiskLevel:     derefString(a.RiskLevel, ""),
		AIExplanation: derefString(a.AIExplanation, ""),
		Reasons:       a.Reasons,
		Flashcard:     a.Flashcard,
	}
}

func expandFlat(a *models.PayloadAnalysis) models.Analysis {
	signal := normalizeSignal(a.Verdict.Signal)
	if signal == "" {
		signal = DefaultSignal
	}

	reasons := a.Reasons
	if len(reasons) == 0 {
		reasons = []string{DefaultReason}
	}

	flashcard := a.Flashcard
	if flashcard == nil {
		flashcard = &models.Flashcard{
			Title:   fmt.Sprintf("%s signal", signal),
			Reasons: append([]string{}, reasons...),
		}
	}

	conf := a.Verdict.Confidence
	if conf == nil {
		conf = a.Confidence.Ptr()
	}
	action := a.Action
	if action == nil {
		action = a.Verdict.Action
	}

	return models.Analysis{
		Verdict: models.Verdict{
			Signal:     signal,
			Confidence: clampConfidence(deref(conf, DefaultConfidence)),
		},
		Action:        derefString(action, fmt.Sprintf("%s position recommended", signal)),
		TargetPrice:   a.TargetPrice.Ptr(),
		Timeframe:     derefString(a.Timeframe, DefaultTimeframe),
		RiskLevel:     derefString(a.RiskLevel, DefaultRiskLevel),
		AIExplanation: derefString(a.AIExplanation, DefaultExplanation),
		Reasons:       reasons,
		Flashcard:     flashcard,
	}
}

func normalizeSignal(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
