package models

import (
	"time"

	"github.com/google/uuid"
)

// FunnelKind classifies a funnel event.
type FunnelKind string

const (
	FunnelScreenView       FunnelKind = "screen_view"
	FunnelAuthSignUp       FunnelKind = "auth_signup"
	FunnelAuthLogin        FunnelKind = "auth_login"
	FunnelAuthFailed       FunnelKind = "auth_failed"
	FunnelAnalysisLive     FunnelKind = "analysis_live"
	FunnelAnalysisFallback FunnelKind = "analysis_fallback"
	FunnelAnalysisFailed   FunnelKind = "analysis_failed"
	FunnelRetry            FunnelKind = "retry"
)

// FunnelKinds lists every kind in funnel order.
var FunnelKinds = []FunnelKind{
	FunnelScreenView,
	FunnelAuthSignUp,
	FunnelAuthLogin,
	FunnelAuthFailed,
	FunnelAnalysisLive,
	FunnelAnalysisFallback,
	FunnelAnalysisFailed,
	FunnelRetry,
}

// FunnelEvent is one step a user took through the onboarding flow.
type FunnelEvent struct {
	ID        uuid.UUID  `json:"id"`
	SessionID uuid.UUID  `json:"session_id"`
	Kind      FunnelKind `json:"kind"`
	Screen    Screen     `json:"screen,omitempty"`
	Ticker    string     `json:"ticker,omitempty"`
	Intent    Intent     `json:"intent,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// PriceTick is one streamed price.
type PriceTick struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream frame types.
const (
	StreamTick  = "tick"
	StreamError = "error"
)

// StreamMessage is one websocket frame of /api/stream.
type StreamMessage struct {
	Type  string      `json:"type"`
	Data  []PriceTick `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}
