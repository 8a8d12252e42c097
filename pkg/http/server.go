package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"TrackBets/pkg/http/middleware"
	applogger "TrackBets/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serverConfig struct {
	host            string
	port            int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	cors            bool
	metricsPath     string
	slowThreshold   time.Duration
	log             *applogger.Logger
	extra           []echo.MiddlewareFunc
}

type ServerOption func(*serverConfig)

// Server is an Echo instance with the TrackBets middleware chain and a
// context-driven lifecycle.
type Server struct {
	echo     *echo.Echo
	addr     string
	shutdown time.Duration
	log      *applogger.Logger
}

// NewServer builds the router. Middleware runs in this order: recover,
// request log, metrics, CORS, then anything passed via WithMiddleware.
func NewServer(handler Handler, opts ...ServerOption) *Server {
	cfg := serverConfig{
		host:            "0.0.0.0",
		port:            8080,
		readTimeout:     10 * time.Second,
		writeTimeout:    10 * time.Second,
		shutdownTimeout: 10 * time.Second,
		cors:            true,
		log:             applogger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := echo.New()
	e.HideBanner, e.HidePort = true, true
	e.Server.ReadTimeout = cfg.readTimeout
	e.Server.WriteTimeout = cfg.writeTimeout

	e.Use(middleware.Recover(cfg.log), middleware.RequestLogging(cfg.log))
	if cfg.metricsPath != "" {
		e.Use(middleware.Metrics(cfg.log, cfg.slowThreshold))
	}
	if cfg.cors {
		// the demo API is read-only, so any origin may call it
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	e.Use(cfg.extra...)

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if cfg.metricsPath != "" {
		e.GET(cfg.metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{
		echo:     e,
		addr:     net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port)),
		shutdown: cfg.shutdownTimeout,
		log:      cfg.log,
	}
}

// Run listens, serves until ctx is done and then drains in-flight requests
// for at most the shutdown timeout. A bind failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	s.log.Info("http server listening", applogger.String("addr", ln.Addr().String()))

	served := make(chan error, 1)
	go func() {
		err := s.echo.Server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	select {
	case err := <-served:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	drain, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.echo.Shutdown(drain); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return <-served
}

// Echo exposes the router, mainly for httptest.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func WithHost(host string) ServerOption {
	return func(c *serverConfig) { c.host = host }
}

func WithPort(port int) ServerOption {
	return func(c *serverConfig) { c.port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.readTimeout, c.writeTimeout, c.shutdownTimeout = read, write, shutdown
	}
}

func WithCORS(enabled bool) ServerOption {
	return func(c *serverConfig) { c.cors = enabled }
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics serves Prometheus at path and logs requests slower than slow.
func WithMetrics(path string, slow time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.metricsPath, c.slowThreshold = path, slow
	}
}

func WithMiddleware(mw ...echo.MiddlewareFunc) ServerOption {
	return func(c *serverConfig) { c.extra = append(c.extra, mw...) }
}
