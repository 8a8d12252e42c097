package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrackBets/internal/domain/models"
)

type fakeStream struct {
	mu        sync.Mutex
	connErr   error
	ticks     chan *models.PriceTick
	errs      chan error
	connected bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{ticks: make(chan *models.PriceTick, 16), errs: make(chan error, 1)}
}

func (s *fakeStream) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connErr != nil {
		return s.connErr
	}
	s.connected = true
	return nil
}

func (s *fakeStream) Read(context.Context) (<-chan *models.PriceTick, <-chan error) {
	return s.ticks, s.errs
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func TestPriceWatcherBuildsView(t *testing.T) {
	stream := newFakeStream()
	w := NewPriceWatcher(stream, "TSLA", 4, time.Second, nil)

	var mu sync.Mutex
	seen := 0
	w.OnTick(func(*models.PriceTick) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsConnected())

	for i, p := range []float64{100, 101, 99, 102, 104} {
		stream.ticks <- &models.PriceTick{Ticker: "TSLA", Price: p, Seq: uint64(i)}
	}
	stream.ticks <- &models.PriceTick{Ticker: "AAPL", Price: 1}
	stream.errs <- errors.New("hiccup")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen == 5 && w.Err() != nil
	}, time.Second, 5*time.Millisecond)

	v := w.View(10)
	assert.Equal(t, 4, v.Points, "history is bounded")
	assert.Equal(t, 104.0, v.Last)
	assert.InDelta(t, (104.0-101)/101*100, v.Change, 1e-9)
	assert.Positive(t, v.Volatility)
	assert.Equal(t, 4, len([]rune(v.Sparkline)))

	require.NoError(t, w.Stop())
	assert.False(t, w.IsConnected())
}

func TestPriceWatcherConnectFailure(t *testing.T) {
	stream := newFakeStream()
	stream.connErr = errors.New("refused")
	w := NewPriceWatcher(stream, "TSLA", 10, time.Second, nil)

	assert.Error(t, w.Start(context.Background()))
	assert.Zero(t, w.View(10).Points)
	require.NoError(t, w.Stop())
}
