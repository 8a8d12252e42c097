package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
)

// EventProc is the downstream the pipeline forwards to.
type EventProc interface {
	Process(ctx context.Context, e *models.FunnelEvent) error
}

// EventPipeline sits between the client and the funnel backend. Submit never
// blocks: events are validated, throttled per kind and queued, and a single
// worker forwards them with capped backoff. Events that cannot be queued are
// dropped. On shutdown whatever is still queued gets one delivery attempt
// within the drain timeout.
type EventPipeline struct {
	proc    EventProc
	metrics drepo.Metrics
	maxRPS  int
	bufSize int
	minWait time.Duration
	maxWait time.Duration
	drainIn time.Duration

	bufCh chan *models.FunnelEvent
	stop  chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	limiters map[models.FunnelKind]*rate.Limiter
}

type PipelineOption func(*EventPipeline)

// WithMaxRPS caps accepted events per second for each kind. Zero disables
// throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff bounds the wait after a failed delivery.
func WithBackoff(min, max time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if min > 0 && max >= min {
			p.minWait, p.maxWait = min, max
		}
	}
}

// WithDrainTimeout bounds how long shutdown spends flushing queued events.
func WithDrainTimeout(d time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if d > 0 {
			p.drainIn = d
		}
	}
}

func NewEventPipeline(proc EventProc, metrics drepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  256,
		minWait:  50 * time.Millisecond,
		maxWait:  2 * time.Second,
		drainIn:  2 * time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		limiters: make(map[models.FunnelKind]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.FunnelEvent, p.bufSize)
	return p
}

// Start launches the delivery worker. It runs until Stop or ctx is done and
// drains the queue on the way out.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

func (p *EventPipeline) run(ctx context.Context) {
	defer close(p.done)

	defer p.drain(ctx)

	backoff := p.minWait
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case e := <-p.bufCh:
			if err := p.proc.Process(ctx, e); err != nil {
				p.metrics.RecordError("pipeline_flush")
				select {
				case p.bufCh <- e:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
				if !p.sleep(ctx, backoff) {
					return
				}
				if backoff *= 2; backoff > p.maxWait {
					backoff = p.maxWait
				}
				continue
			}
			backoff = p.minWait
		}
	}
}

// drain makes one delivery attempt per queued event until the queue is
// empty or the drain timeout passes. Events left after the deadline are
// counted as drops.
func (p *EventPipeline) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.drainIn)
	defer cancel()

	for {
		select {
		case e := <-p.bufCh:
			if ctx.Err() != nil {
				p.metrics.RecordError("pipeline_drain_drop")
				continue
			}
			if err := p.proc.Process(ctx, e); err != nil {
				p.metrics.RecordError("pipeline_drain")
			}
		default:
			return
		}
	}
}

func (p *EventPipeline) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// Stop ends the worker and waits for it to drain the queue. A pipeline that
// was never started drains on the caller's goroutine.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	close(p.stop)
	if !started {
		p.drain(context.Background())
		return
	}
	<-p.done
}

// Pending reports the number of queued events.
func (p *EventPipeline) Pending() int { return len(p.bufCh) }

// Submit queues an event and reports whether it was accepted.
func (p *EventPipeline) Submit(e *models.FunnelEvent) bool {
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return false
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return false
	}
	allowed := p.allow(e.Kind)
	p.mu.Unlock()

	if !allowed {
		p.metrics.RecordError("pipeline_throttle")
		return false
	}

	select {
	case p.bufCh <- e:
		return true
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return false
	}
}

// allow applies the per-kind limit. Caller holds mu.
func (p *EventPipeline) allow(kind models.FunnelKind) bool {
	if p.maxRPS <= 0 {
		return true
	}
	l, ok := p.limiters[kind]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.maxRPS), p.maxRPS)
		p.limiters[kind] = l
	}
	return l.Allow()
}

func validateEvent(e *models.FunnelEvent) error {
	switch {
	case e == nil:
		return errors.New("event is nil")
	case e.Kind == "":
		return errors.New("event kind is empty")
	case e.Timestamp.IsZero():
		return errors.New("event timestamp is zero")
	}
	return nil
}
