package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "TrackBets/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

var (
	defaultHTTPMetrics     *httpMetrics
	defaultHTTPMetricsOnce sync.Once
)

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trackbets_http_requests_total",
			Help: "API requests by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackbets_http_request_seconds",
			Help:    "API request latency by route template.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"route", "method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trackbets_http_in_flight_requests",
			Help: "API requests currently being served, open price streams included.",
		}),
	}
	reg.MustRegister(m.requests, m.latency, m.inFlight)
	return m
}

// Metrics records request counts and latency on the default registry and
// warns about requests slower than slow. Routes are labelled by template
// ("/api/analyze/:ticker"), never by raw path.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	defaultHTTPMetricsOnce.Do(func() { defaultHTTPMetrics = newHTTPMetrics(prometheus.DefaultRegisterer) })
	return metricsWith(defaultHTTPMetrics, l, slow)
}

func metricsWith(m *httpMetrics, l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			took := time.Since(start)
			m.requests.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			m.latency.WithLabelValues(route, method).Observe(took.Seconds())

			// price streams are long-lived by nature
			if slow > 0 && took >= slow && !c.IsWebSocket() {
				l.Warn("slow http request",
					applogger.String("route", route),
					applogger.String("request_id", requestID(c)),
					applogger.Duration("took_ms", took),
				)
			}
			return nil
		}
	}
}
