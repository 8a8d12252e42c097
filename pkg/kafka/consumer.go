package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"TrackBets/pkg/logger"
)

// MessageHandler processes the payloads of one topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, payload []byte) error
}

var (
	ErrNoHandlers     = errors.New("kafka: no handlers registered")
	ErrAlreadyStarted = errors.New("kafka: consumer already started")

	// errStopping abandons a message mid-retry. It is neither committed nor
	// dead-lettered, so the group redelivers it.
	errStopping = errors.New("kafka: consumer stopping")
)

// rejectedError marks a Hook.Before refusal, which is never retried.
type rejectedError struct{ err error }

func (e rejectedError) Error() string { return "rejected by hook: " + e.err.Error() }
func (e rejectedError) Unwrap() error { return e.err }

// Consumer reads registered topics in a consumer group and hands messages to
// a fixed pool of workers. Every partition is pinned to one worker, so the
// messages of a partition are handled and committed in order.
type Consumer struct {
	cfg      ConsumerConfig
	log      *logger.Logger
	hook     Hook
	metrics  *consumerMetrics
	handlers map[string]MessageHandler

	readers map[string]*kafka.Reader
	queues  []chan kafka.Message
	dlq     *kafka.Writer

	started     bool
	stop        chan struct{}
	stopOnce    sync.Once
	cancelFetch context.CancelFunc
	fetchers    sync.WaitGroup
	workers     sync.WaitGroup
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger,
		hook:     HookFuncs{},
		metrics:  newConsumerMetrics(cfg.Registerer),
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		stop:     make(chan struct{}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}
	return c, nil
}

// RegisterHandler adds h for its topic. Only the first handler of a topic
// is kept. Call before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, dup := c.handlers[h.Topic()]; dup {
		c.log.Warn("duplicate kafka handler ignored", logger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

// WithConsumerHook replaces the lifecycle hook. Call before Start.
func (c *Consumer) WithConsumerHook(h Hook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens the readers and returns; work continues until Stop.
func (c *Consumer) Start() error {
	if c.started {
		return ErrAlreadyStarted
	}
	if len(c.handlers) == 0 {
		return ErrNoHandlers
	}
	c.started = true

	c.queues = make([]chan kafka.Message, c.cfg.Workers)
	for i := range c.queues {
		c.queues[i] = make(chan kafka.Message, c.cfg.BufferSize)
		c.workers.Add(1)
		go c.work(i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFetch = cancel
	for topic := range c.handlers {
		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			GroupID:  c.cfg.GroupID,
			Topic:    topic,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers[topic] = r
		c.fetchers.Add(1)
		go c.fetch(ctx, r)
	}

	// queues close once nothing can send on them any more
	go func() {
		c.fetchers.Wait()
		for _, q := range c.queues {
			close(q)
		}
	}()

	c.log.Info("kafka consumer started",
		logger.String("group", c.cfg.GroupID),
		logger.Int("topics", len(c.readers)),
		logger.Int("workers", c.cfg.Workers),
	)
	return nil
}

// Stop halts fetching, lets workers finish what they hold and closes the
// readers. It returns ctx's error if the workers outlive ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		if c.cancelFetch != nil {
			c.cancelFetch()
		}

		drained := make(chan struct{})
		go func() {
			c.fetchers.Wait()
			c.workers.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer drain: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("close kafka reader", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("close dlq writer", logger.Error(cerr))
			}
		}
		if err == nil {
			c.log.Info("kafka consumer stopped")
		}
	})
	return err
}

func (c *Consumer) fetch(ctx context.Context, r *kafka.Reader) {
	defer c.fetchers.Done()
	topic := r.Config().Topic
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("kafka fetch", logger.String("topic", topic), logger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
				continue
			case <-ctx.Done():
				return
			}
		}

		w := c.workerFor(km.Topic, km.Partition)
		select {
		case c.queues[w] <- km:
			c.metrics.queued(w, len(c.queues[w]))
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) workerFor(topic string, partition int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	return int((h.Sum32() + uint32(partition)) % uint32(len(c.queues)))
}

func (c *Consumer) work(i int) {
	defer c.workers.Done()
	for km := range c.queues[i] {
		c.process(km)
		c.metrics.queued(i, len(c.queues[i]))
	}
}

// process handles one message and decides its fate: commit on success,
// dead-letter then commit on failure when a DLQ is configured, otherwise
// leave the offset for redelivery.
func (c *Consumer) process(km kafka.Message) {
	h, ok := c.handlers[km.Topic]
	if !ok {
		return
	}
	start := time.Now()
	fields := []logger.Field{
		logger.String("topic", km.Topic),
		logger.Int("partition", km.Partition),
		logger.Int64("offset", km.Offset),
	}

	err := c.handle(h, km)
	outcome := "ok"
	switch {
	case errors.Is(err, errStopping):
		c.log.Debug("kafka message abandoned on shutdown", fields...)
		return
	case err != nil:
		c.hook.Failed(context.Background(), km, err)
		c.log.Error("kafka message failed", append(fields, logger.Error(err))...)
		if c.dlq == nil {
			c.metrics.done(km.Topic, "failed", time.Since(start))
			return
		}
		if derr := c.deadLetter(km, err); derr != nil {
			c.log.Error("kafka dead letter", append(fields, logger.Error(derr))...)
			c.metrics.done(km.Topic, "failed", time.Since(start))
			return
		}
		outcome = "dead_lettered"
	}

	c.commit(km)
	c.metrics.done(km.Topic, outcome, time.Since(start))
}

func (c *Consumer) handle(h MessageHandler, km kafka.Message) error {
	for attempt := 0; ; attempt++ {
		err := c.attempt(h, km)
		var rejected rejectedError
		if err == nil || errors.As(err, &rejected) || attempt >= c.cfg.RetryMax {
			return err
		}
		c.metrics.retries.WithLabelValues(km.Topic).Inc()

		select {
		case <-time.After(backoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt+1)):
		case <-c.stop:
			return errStopping
		}
	}
}

func (c *Consumer) attempt(h MessageHandler, km kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	ctx, err := c.hook.Before(context.Background(), km)
	if err != nil {
		return rejectedError{err}
	}
	err = h.Handle(ctx, km.Value)
	c.hook.After(ctx, km, err)
	return err
}

func (c *Consumer) deadLetter(km kafka.Message, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   km.Key,
		Value: km.Value,
		Headers: append(km.Headers,
			kafka.Header{Key: "source_topic", Value: []byte(km.Topic)},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
	})
}

// commit retries briefly; a lost commit only means a redelivery, which
// the ReplacingMergeTree table absorbs.
func (c *Consumer) commit(km kafka.Message) {
	r := c.readers[km.Topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit", logger.String("topic", km.Topic), logger.Int64("offset", km.Offset), logger.Error(err))
}

// backoff doubles from min per attempt up to max and keeps a random 50-100%
// of that.
func backoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt < 1 {
		attempt = 1
	}
	if attempt < 32 {
		if exp := min << (attempt - 1); exp > 0 && exp < max {
			d = exp
		}
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half+1)
}
