package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
	dservice "TrackBets/internal/domain/service"
	"TrackBets/internal/services/analysis"
	"TrackBets/pkg/logger"
	"TrackBets/pkg/util"
)

// Analyzer requests an analysis and always produces a usable Outcome:
// the normalized result, a labelled fallback, or an error.
type Analyzer struct {
	remote   drepo.AnalysisService
	fallback dservice.FallbackSource
	enabled  bool
	metrics  drepo.Metrics
	log      *logger.Logger
	tracker  *FunnelTracker
	now      func() time.Time
}

type AnalyzerOption func(*Analyzer)

// WithFallback turns the mock fallback on or off. It is on by default.
func WithFallback(enabled bool) AnalyzerOption {
	return func(a *Analyzer) { a.enabled = enabled }
}

func WithAnalyzerMetrics(m drepo.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithAnalyzerLogger(l *logger.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

// WithAnalyzerTracker reports analysis outcomes as funnel events.
func WithAnalyzerTracker(t *FunnelTracker) AnalyzerOption {
	return func(a *Analyzer) { a.tracker = t }
}

func NewAnalyzer(remote drepo.AnalysisService, fallback dservice.FallbackSource, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		remote:   remote,
		fallback: fallback,
		enabled:  true,
		metrics:  nopMetrics{},
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run fetches and normalizes the analysis for ticker.
func (a *Analyzer) Run(ctx context.Context, ticker string) Outcome {
	ticker = util.NormalizeSymbol(ticker)
	start := a.now()

	payload, err := a.fetch(ctx, ticker)
	a.metrics.RecordLatency("analyze", a.now().Sub(start).Seconds())

	if err == nil {
		res := analysis.Normalize(payload)
		if res.Ticker == "" {
			res.Ticker = ticker
		}
		if res.Timestamp.IsZero() {
			res.Timestamp = a.now().UTC()
		}
		a.metrics.RecordAnalysis(res.Source, res.Analysis.Verdict.Signal)
		a.tracker.AnalysisEvent(models.FunnelAnalysisLive, ticker, res.Source)
		return Outcome{Result: res}
	}

	a.metrics.RecordError("analyze")
	a.log.Warn("analysis request failed",
		logger.String("ticker", ticker),
		logger.Bool("fallback", a.enabled && a.fallback != nil),
		logger.Error(err),
	)

	if !a.enabled || a.fallback == nil {
		a.tracker.AnalysisEvent(models.FunnelAnalysisFailed, ticker, err.Error())
		return Outcome{Err: err}
	}

	res := a.fallback.Generate(ticker)
	a.metrics.RecordAnalysis(res.Source, res.Analysis.Verdict.Signal)
	a.tracker.AnalysisEvent(models.FunnelAnalysisFallback, ticker, err.Error())
	return Outcome{Result: res, Notice: err.Error()}
}

// fetch calls the remote service and turns panics and empty answers into
// errors.
func (a *Analyzer) fetch(ctx context.Context, ticker string) (p *models.Payload, err error) {
	if a.remote == nil {
		return nil, errors.New("no analysis service configured")
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("analysis service panicked: %v", r)
		}
	}()

	p, err = a.remote.Analyze(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("empty analysis response")
	}
	if reason, failed := p.FailureReason(); failed {
		return nil, errors.New(reason)
	}
	return p, nil
}
