package usecase

import (
	"time"

	"github.com/google/uuid"

	"TrackBets/internal/domain/models"
)

// EventSink accepts funnel events without blocking. Submit reports whether
// the event was queued.
type EventSink interface {
	Submit(e *models.FunnelEvent) bool
}

// FunnelTracker turns client activity into funnel events. A nil tracker is
// valid and records nothing.
type FunnelTracker struct {
	session uuid.UUID
	sink    EventSink
	now     func() time.Time
}

func NewFunnelTracker(sink EventSink) *FunnelTracker {
	return &FunnelTracker{session: uuid.New(), sink: sink, now: time.Now}
}

// SessionID identifies every event emitted by this tracker.
func (t *FunnelTracker) SessionID() uuid.UUID {
	if t == nil {
		return uuid.Nil
	}
	return t.session
}

// ScreenViewed implements NavigationObserver.
func (t *FunnelTracker) ScreenViewed(screen models.Screen, intent models.Intent, ticker string) {
	t.emit(&models.FunnelEvent{
		Kind:   models.FunnelScreenView,
		Screen: screen,
		Intent: intent,
		Ticker: ticker,
	})
}

func (t *FunnelTracker) AuthEvent(kind models.FunnelKind, detail string) {
	t.emit(&models.FunnelEvent{Kind: kind, Detail: detail})
}

func (t *FunnelTracker) AnalysisEvent(kind models.FunnelKind, ticker, detail string) {
	t.emit(&models.FunnelEvent{Kind: kind, Ticker: ticker, Detail: detail})
}

func (t *FunnelTracker) Retried(ticker string) {
	t.emit(&models.FunnelEvent{Kind: models.FunnelRetry, Ticker: ticker})
}

func (t *FunnelTracker) emit(e *models.FunnelEvent) bool {
	if t == nil || t.sink == nil {
		return false
	}
	e.ID = uuid.New()
	e.SessionID = t.session
	e.Timestamp = t.now().UTC()
	return t.sink.Submit(e)
}
