package trackbets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"TrackBets/internal/domain/models"
	"TrackBets/pkg/config"
	xhttp "TrackBets/pkg/http"
	"TrackBets/pkg/logger"
)

// DefaultBaseURL is used when no API base is configured.
const DefaultBaseURL = "http://localhost:8080"

// ErrAnalysisFailed marks a response that carried a failure marker.
var ErrAnalysisFailed = errors.New("analysis failed")

// RemoteError is a non-2xx answer from the analysis service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API Error: %d", e.StatusCode)
	}
	return fmt.Sprintf("API Error: %d: %s", e.StatusCode, e.Message)
}

// Client talks to the remote analysis service.
type Client struct {
	baseURL string
	client  *xhttp.Client
	log     *logger.Logger
}

// NewClient builds a client from the api section of cfg.
func NewClient(cfg *config.Config, l *logger.Logger, opts ...xhttp.ClientOption) *Client {
	base := strings.TrimRight(cfg.API.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if l == nil {
		l = logger.Nop()
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(cfg.API.Timeout)}, opts...)
	return &Client{
		baseURL: base,
		client:  xhttp.NewClient(opts...),
		log:     l.With("analysis-client"),
	}
}

// BaseURL returns the resolved API origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Analyze requests an analysis for ticker. A payload carrying a failure
// marker is returned together with an error wrapping ErrAnalysisFailed.
func (c *Client) Analyze(ctx context.Context, ticker string) (*models.Payload, error) {
	var p models.Payload
	err := asRemote(c.client.GetJSON(ctx, c.baseURL+"/api/analyze", url.Values{"ticker": {ticker}}, &p))
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", ticker, err)
	}

	if reason, failed := p.FailureReason(); failed {
		c.log.Warn("analysis failure marker", logger.String("ticker", ticker), logger.String("reason", reason))
		return &p, fmt.Errorf("analyze %s: %w: %s", ticker, ErrAnalysisFailed, reason)
	}
	return &p, nil
}

// Search resolves a free-text query to a ticker.
func (c *Client) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	var out struct {
		models.SearchResult
		Error string `json:"error"`
	}
	err := asRemote(c.client.PostJSON(ctx, c.baseURL+"/api/search", models.SearchRequest{Query: query}, &out))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("search %q: %w", query, &RemoteError{StatusCode: 200, Message: out.Error})
	}
	return &out.SearchResult, nil
}

// Health fetches the service health document.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var h models.Health
	if err := asRemote(c.client.GetJSON(ctx, c.baseURL+"/api/health", nil, &h)); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &h, nil
}

// asRemote turns a non-2xx answer into a *RemoteError carrying the API's message.
func asRemote(err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &RemoteError{StatusCode: se.StatusCode, Message: errorMessage(se.Body)}
	}
	return err
}

// errorMessage extracts {error} or {detail} from an error body.
func errorMessage(body []byte) string {
	var e struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &e) != nil {
		return strings.TrimSpace(string(body))
	}
	if e.Error != "" {
		return e.Error
	}
	var detail string
	if json.Unmarshal(e.Detail, &detail) == nil {
		return detail
	}
	return ""
}
