package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/services/analysis"
	"TrackBets/pkg/cache"
)

type countingCatalog struct {
	*analysis.Catalog
	searches int
}

func (c *countingCatalog) Search(q string) (models.SearchResult, bool) {
	c.searches++
	return c.Catalog.Search(q)
}

func TestSearchCachesHits(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	catalog := &countingCatalog{Catalog: analysis.NewCatalog()}
	s := NewSearch(catalog, mc, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := s.Find(context.Background(), " zomato ")
		require.NoError(t, err)
		assert.Equal(t, "ZOMATO.NS", res.Ticker)
	}
	assert.Equal(t, 1, catalog.searches)

	_, err := s.Find(context.Background(), "ZOMATO")
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.searches, "keys are case-insensitive")
}

func TestSearchMisses(t *testing.T) {
	s := NewSearch(analysis.NewCatalog(), nil, 0)

	_, err := s.Find(context.Background(), "nothing-like-this")
	assert.ErrorIs(t, err, ErrTickerNotFound)

	_, err = s.Find(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrTickerNotFound)
}
