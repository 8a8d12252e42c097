package pricestream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
	"TrackBets/pkg/logger"
)

var ErrNotConnected = errors.New("price stream not connected")

// Client implements PriceStream against the /api/stream websocket.
type Client struct {
	streamURL    string
	pingInterval time.Duration
	dialer       *websocket.Dialer
	log          *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

type Option func(*Client)

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a stream for ticker on the API at baseURL (http or https).
func New(baseURL, ticker string, opts ...Option) (drepo.PriceStream, error) {
	u, err := StreamURL(baseURL, ticker)
	if err != nil {
		return nil, err
	}
	c := &Client{
		streamURL:    u,
		pingInterval: 20 * time.Second,
		dialer:       websocket.DefaultDialer,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StreamURL maps an API base URL to the websocket endpoint for ticker.
func StreamURL(baseURL, ticker string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api base: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported api scheme %q", u.Scheme)
	}
	u.Path += "/api/stream"
	u.RawQuery = url.Values{"ticker": {ticker}}.Encode()
	return u.String(), nil
}

// Connect dials the websocket.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.streamURL, nil)
	if err != nil {
		return fmt.Errorf("price stream connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Debug("price stream connected", logger.String("url", c.streamURL))
	return nil
}

// Read streams ticks until ctx is done or the connection fails. Both
// channels are closed when reading stops.
func (c *Client) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	ticks := make(chan *models.PriceTick, 256)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		errs <- ErrNotConnected
		close(ticks)
		close(errs)
		return ticks, errs
	}

	done := make(chan struct{})

	go func() {
		t := time.NewTicker(c.pingInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				// unblock the read loop
				_ = c.Close()
				return
			case <-done:
				return
			case <-t.C:
				c.mu.Lock()
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				c.mu.Unlock()
			}
		}
	}()

	go func() {
		defer close(ticks)
		defer close(errs)
		defer close(done)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("price stream read: %w", err)
				}
				return
			}
			var m models.StreamMessage
			if err := json.Unmarshal(b, &m); err != nil {
				continue
			}
			switch m.Type {
			case models.StreamTick:
			case models.StreamError:
				errs <- fmt.Errorf("price stream: %s", m.Error)
				return
			default:
				continue
			}
			for i := range m.Data {
				tick := m.Data[i]
				select {
				case ticks <- &tick:
				case <-ctx.Done():
					return
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
