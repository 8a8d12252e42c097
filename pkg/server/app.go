package server

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	xhttp "TrackBets/pkg/http"
	pkgkafka "TrackBets/pkg/kafka"
	"TrackBets/pkg/logger"
)

// App runs the demo API: the HTTP server and, when configured, the Kafka
// consumer that ingests funnel events.
type App struct {
	http            *xhttp.Server
	consumer        *pkgkafka.Consumer
	ingest          pkgkafka.MessageHandler
	log             *logger.Logger
	shutdownTimeout time.Duration
}

type Option func(*App)

// WithIngest attaches a consumer and the handler it feeds.
func WithIngest(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.ingest = h
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

func New(srv *xhttp.Server, opts ...Option) *App {
	a := &App{http: srv, log: logger.Nop(), shutdownTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run blocks until ctx is cancelled or a component fails, then stops
// everything it started.
func (a *App) Run(ctx context.Context) error {
	// the consumer starts first so a bad Kafka setup fails before we serve
	ingesting := a.consumer != nil && a.ingest != nil
	if ingesting {
		a.consumer.RegisterHandler(a.ingest)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("funnel ingest started", logger.String("topic", a.ingest.Topic()))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.http.Run(ctx)
	})
	if ingesting {
		g.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()
			if err := a.consumer.Stop(stopCtx); err != nil {
				return fmt.Errorf("kafka consumer stop: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	a.log.Info("shutdown complete")
	return err
}
