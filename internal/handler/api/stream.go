package api

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"TrackBets/internal/domain/models"
	domrepo "TrackBets/internal/domain/repository"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/services/features"
	xhttp "TrackBets/pkg/http"
	xlogger "TrackBets/pkg/logger"
)

// StreamHandler pushes a random walk of prices over a websocket, seeded from
// the catalog price when the ticker is known.
type StreamHandler struct {
	logger   *xlogger.Logger
	catalog  *analysis.Catalog
	metrics  domrepo.Metrics
	interval time.Duration
	ping     time.Duration
	upgrader websocket.Upgrader
	seed     func() int64
}

type StreamOption func(*StreamHandler)

func WithStreamInterval(tick, ping time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if tick > 0 {
			h.interval = tick
		}
		if ping > 0 {
			h.ping = ping
		}
	}
}

func WithStreamSeed(seed func() int64) StreamOption {
	return func(h *StreamHandler) { h.seed = seed }
}

func NewStreamHandler(logger *xlogger.Logger, catalog *analysis.Catalog, metrics domrepo.Metrics, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{
		logger:   logger,
		catalog:  catalog,
		metrics:  metrics,
		interval: time.Second,
		ping:     20 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		seed: func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if key, ok := h.catalog.Resolve(ticker); ok {
		ticker = key
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("stream upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	rnd := rand.New(rand.NewSource(h.seed()))
	var start float64
	if res, ok := h.catalog.Lookup(ticker); ok && res.PriceData.Price > 0 {
		start = res.PriceData.Price
	} else {
		start = float64(rnd.Intn(100000)) / 100
	}
	walk := features.NewRandomWalk(rnd, start, 0.002)

	// The read loop handles control frames and notices the client leaving.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var wmu sync.Mutex
	write := func(m models.StreamMessage) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteJSON(m)
	}

	tick := time.NewTicker(h.interval)
	defer tick.Stop()
	ping := time.NewTicker(h.ping)
	defer ping.Stop()

	h.logger.Debug("stream opened", xlogger.String("ticker", ticker))
	var seq uint64
	for {
		select {
		case <-closed:
			h.logger.Debug("stream closed", xlogger.String("ticker", ticker), xlogger.Uint64("ticks", seq))
			return nil
		case <-c.Request().Context().Done():
			return nil
		case <-ping.C:
			wmu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wmu.Unlock()
			if err != nil {
				return nil
			}
		case now := <-tick.C:
			seq++
			price := walk.Next()
			err := write(models.StreamMessage{
				Type: models.StreamTick,
				Data: []models.PriceTick{{Ticker: ticker, Price: price, Seq: seq, Timestamp: now.UTC()}},
			})
			if err != nil {
				return nil
			}
			h.metrics.RecordLastPrice(ticker, price)
		}
	}
}
