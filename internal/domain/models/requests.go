package models

// Requests for the demo analysis API.

type AnalyzeRequest struct {
	Ticker string `query:"ticker" param:"ticker" json:"ticker" validate:"required,max=32"`
	Format string `query:"format" json:"format" default:"flat" validate:"oneof=flat nested"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required,max=64"`
}

type StreamRequest struct {
	Ticker string `query:"ticker" validate:"required,max=32"`
}

type FunnelRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
	Kind string `query:"kind" validate:"omitempty,max=32"`
}

// SearchResult is the /api/search answer.
type SearchResult struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// Health is the /api/health answer.
type Health struct {
	Status      string   `json:"status"`
	Service     string   `json:"service,omitempty"`
	MockTickers []string `json:"mock_tickers_available,omitempty"`
}

// MockTickers is the /api/mock-tickers answer.
type MockTickers struct {
	MockTickers []string `json:"mock_tickers"`
	Description string   `json:"description"`
}

// FunnelCount is one row of /api/funnel.
type FunnelCount struct {
	Kind  string `json:"kind"`
	Count uint64 `json:"count"`
}
