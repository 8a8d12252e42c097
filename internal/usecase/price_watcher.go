package usecase

import (
	"context"
	"sync"
	"time"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
	"TrackBets/internal/services/features"
)

// PriceView summarises the streamed prices of one ticker.
type PriceView struct {
	Ticker     string
	Last       float64
	Change     float64
	Volatility float64
	Sparkline  string
	Points     int
}

// PriceWatcher feeds streamed ticks into a rolling series.
type PriceWatcher struct {
	stream   drepo.PriceStream
	metrics  drepo.Metrics
	series   *features.Series
	ticker   string
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	onTick  func(*models.PriceTick)
	lastErr error
}

func NewPriceWatcher(stream drepo.PriceStream, ticker string, history int, interval time.Duration, metrics drepo.Metrics) *PriceWatcher {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &PriceWatcher{
		stream:   stream,
		metrics:  metrics,
		series:   features.NewSeries(history),
		ticker:   ticker,
		interval: interval,
	}
}

// OnTick registers fn to run after every accepted tick. It must not block.
func (w *PriceWatcher) OnTick(fn func(*models.PriceTick)) {
	w.mu.Lock()
	w.onTick = fn
	w.mu.Unlock()
}

// IsConnected returns true if the price stream is connected.
func (w *PriceWatcher) IsConnected() bool {
	return w.stream.IsConnected()
}

// Start connects and consumes ticks in the background until Stop or ctx ends.
func (w *PriceWatcher) Start(ctx context.Context) error {
	if err := w.stream.Connect(ctx); err != nil {
		w.metrics.RecordError("stream_connect")
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel, w.done = cancel, done
	w.mu.Unlock()

	ticks, errs := w.stream.Read(ctx)
	go func() {
		defer close(done)
		w.consume(ctx, ticks, errs)
	}()
	return nil
}

func (w *PriceWatcher) consume(ctx context.Context, ticks <-chan *models.PriceTick, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.metrics.RecordError("stream")
			w.mu.Lock()
			w.lastErr = err
			w.mu.Unlock()
		case t, ok := <-ticks:
			if !ok {
				return
			}
			if t == nil || (w.ticker != "" && t.Ticker != w.ticker) {
				continue
			}
			w.series.Push(t.Price)
			w.metrics.RecordLastPrice(t.Ticker, t.Price)

			w.mu.Lock()
			fn := w.onTick
			w.mu.Unlock()
			if fn != nil {
				fn(t)
			}
		}
	}
}

// View returns the current summary rendered at the given sparkline width.
func (w *PriceWatcher) View(width int) PriceView {
	prices := w.series.Values()
	v := PriceView{Ticker: w.ticker, Points: len(prices)}
	if len(prices) == 0 {
		return v
	}
	v.Last = prices[len(prices)-1]
	v.Change = features.ChangePercent(prices)
	v.Volatility = features.Volatility(features.LogReturns(prices), features.BarsPerYear(w.interval))
	v.Sparkline = features.Sparkline(prices, width)
	return v
}

// Err returns the last stream error, if any.
func (w *PriceWatcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Stop ends consumption, waits for it and closes the stream.
func (w *PriceWatcher) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return w.stream.Close()
}
