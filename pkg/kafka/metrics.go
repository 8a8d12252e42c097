package kafka

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics built without an explicit registerer share one set on the default
// registry, so several producers in a process do not collide.
var (
	defaultProducer     *producerMetrics
	defaultProducerOnce sync.Once
	defaultConsumer     *consumerMetrics
	defaultConsumerOnce sync.Once
)

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	if reg == nil {
		defaultProducerOnce.Do(func() { defaultProducer = buildProducerMetrics(prometheus.DefaultRegisterer) })
		return defaultProducer
	}
	return buildProducerMetrics(reg)
}

func buildProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	m := &producerMetrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trackbets_kafka_published_messages_total",
			Help: "Funnel messages handed to Kafka, by outcome.",
		}, []string{"topic", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trackbets_kafka_published_bytes_total",
			Help: "Encoded payload bytes handed to Kafka.",
		}, []string{"topic", "compression"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackbets_kafka_publish_seconds",
			Help:    "Time spent in WriteMessages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	reg.MustRegister(m.messages, m.bytes, m.latency)
	return m
}

func (m *producerMetrics) observe(topic, codec string, n int, size int64, took time.Duration, err error) {
	m.messages.WithLabelValues(topic, result(err)).Add(float64(n))
	m.bytes.WithLabelValues(topic, codec).Add(float64(size))
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}

type consumerMetrics struct {
	handled *prometheus.CounterVec
	retries *prometheus.CounterVec
	latency *prometheus.HistogramVec
	backlog *prometheus.GaugeVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	if reg == nil {
		defaultConsumerOnce.Do(func() { defaultConsumer = buildConsumerMetrics(prometheus.DefaultRegisterer) })
		return defaultConsumer
	}
	return buildConsumerMetrics(reg)
}

func buildConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	m := &consumerMetrics{
		handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trackbets_kafka_consumed_messages_total",
			Help: "Messages taken off Kafka, by outcome (ok, dead_lettered, failed).",
		}, []string{"topic", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trackbets_kafka_consumer_retries_total",
			Help: "Handler attempts beyond the first.",
		}, []string{"topic"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackbets_kafka_consumer_handle_seconds",
			Help:    "Time from dequeue to commit, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
		backlog: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trackbets_kafka_consumer_backlog",
			Help: "Messages fetched but not yet handled, per worker.",
		}, []string{"worker"}),
	}
	reg.MustRegister(m.handled, m.retries, m.latency, m.backlog)
	return m
}

func (m *consumerMetrics) queued(worker, depth int) {
	m.backlog.WithLabelValues(strconv.Itoa(worker)).Set(float64(depth))
}

func (m *consumerMetrics) done(topic, outcome string, took time.Duration) {
	m.handled.WithLabelValues(topic, outcome).Inc()
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
