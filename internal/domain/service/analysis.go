package service

import "TrackBets/internal/domain/models"

// Catalog serves the fixed set of demo tickers.
type Catalog interface {
	Lookup(ticker string) (*models.AnalysisResult, bool)
	Search(query string) (models.SearchResult, bool)
	Tickers() []string
}

// FallbackSource fabricates a labelled result when the remote service is unavailable.
type FallbackSource interface {
	Generate(ticker string) *models.AnalysisResult
}
