package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"TrackBets/internal/domain/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingProc struct {
	mu     sync.Mutex
	fails  int
	events []*models.FunnelEvent
}

func (r *recordingProc) Process(_ context.Context, e *models.FunnelEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("downstream unavailable")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingProc) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordAnalysis(string, string) {}
func (m *countingMetrics) RecordFunnelEvent(string, string) {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}

func (m *countingMetrics) get(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func event(kind models.FunnelKind) *models.FunnelEvent {
	return &models.FunnelEvent{Kind: kind, Timestamp: time.Now()}
}

func TestEventPipelineDelivers(t *testing.T) {
	proc := &recordingProc{}
	p := NewEventPipeline(proc, &countingMetrics{}, WithMaxRPS(0))
	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 5; i++ {
		require.True(t, p.Submit(event(models.FunnelScreenView)))
	}
	assert.Eventually(t, func() bool { return proc.count() == 5 }, time.Second, 5*time.Millisecond)
}

func TestEventPipelineRetriesAfterFailure(t *testing.T) {
	proc := &recordingProc{fails: 2}
	m := &countingMetrics{}
	p := NewEventPipeline(proc, m, WithBackoff(time.Millisecond, 4*time.Millisecond))
	p.Start(context.Background())
	defer p.Stop()

	require.True(t, p.Submit(event(models.FunnelAuthSignUp)))
	assert.Eventually(t, func() bool { return proc.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, m.get("pipeline_flush"))
}

func TestEventPipelineDropsWhenFull(t *testing.T) {
	m := &countingMetrics{}
	p := NewEventPipeline(&recordingProc{}, m, WithBufferSize(2), WithMaxRPS(0))

	assert.True(t, p.Submit(event(models.FunnelRetry)))
	assert.True(t, p.Submit(event(models.FunnelRetry)))
	assert.False(t, p.Submit(event(models.FunnelRetry)))
	assert.Equal(t, 2, p.Pending())
	assert.Equal(t, 1, m.get("pipeline_buffer_full"))
	p.Stop()
}

func TestEventPipelineThrottlesPerKind(t *testing.T) {
	m := &countingMetrics{}
	p := NewEventPipeline(&recordingProc{}, m, WithMaxRPS(2))
	defer p.Stop()

	accepted := 0
	for i := 0; i < 10; i++ {
		if p.Submit(event(models.FunnelScreenView)) {
			accepted++
		}
	}
	assert.Equal(t, 2, accepted)
	assert.True(t, p.Submit(event(models.FunnelAuthLogin)), "other kinds have their own budget")
	assert.Positive(t, m.get("pipeline_throttle"))
}

func TestEventPipelineRejectsInvalid(t *testing.T) {
	p := NewEventPipeline(&recordingProc{}, &countingMetrics{})
	defer p.Stop()

	assert.False(t, p.Submit(nil))
	assert.False(t, p.Submit(&models.FunnelEvent{Timestamp: time.Now()}))
	assert.False(t, p.Submit(&models.FunnelEvent{Kind: models.FunnelRetry}))
}

func TestEventPipelineStopIsIdempotent(t *testing.T) {
	p := NewEventPipeline(&recordingProc{fails: 1 << 30}, &countingMetrics{}, WithBackoff(time.Hour, time.Hour))
	p.Start(context.Background())
	require.True(t, p.Submit(event(models.FunnelRetry)))

	// the worker is parked in its backoff and must still exit
	time.Sleep(10 * time.Millisecond)
	p.Stop()
	p.Stop()
	assert.False(t, p.Submit(event(models.FunnelRetry)))
}

func TestEventPipelineStopFlushesQueued(t *testing.T) {
	proc := &recordingProc{}
	p := NewEventPipeline(proc, &countingMetrics{}, WithMaxRPS(0))
	for _, k := range []models.FunnelKind{models.FunnelAnalysisFallback, models.FunnelRetry, models.FunnelAnalysisLive} {
		require.True(t, p.Submit(event(k)))
	}

	p.Stop()
	assert.Equal(t, 3, proc.count())
	assert.Zero(t, p.Pending())
}

func TestEventPipelineStopFlushesBehindRunningWorker(t *testing.T) {
	proc := &recordingProc{fails: 1}
	p := NewEventPipeline(proc, &countingMetrics{}, WithMaxRPS(0), WithBackoff(time.Hour, time.Hour))
	p.Start(context.Background())

	require.True(t, p.Submit(event(models.FunnelAnalysisFallback)))
	require.Eventually(t, func() bool { return p.Pending() == 1 }, time.Second, time.Millisecond, "failed event is requeued")
	require.True(t, p.Submit(event(models.FunnelRetry)))

	p.Stop()
	assert.Equal(t, 2, proc.count())
}

type stuckProc struct{}

func (stuckProc) Process(ctx context.Context, _ *models.FunnelEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestEventPipelineDrainGivesUpAtDeadline(t *testing.T) {
	m := &countingMetrics{}
	p := NewEventPipeline(stuckProc{}, m, WithMaxRPS(0), WithDrainTimeout(20*time.Millisecond))
	for i := 0; i < 3; i++ {
		require.True(t, p.Submit(event(models.FunnelScreenView)))
	}

	start := time.Now()
	p.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, m.get("pipeline_drain"))
	assert.Equal(t, 2, m.get("pipeline_drain_drop"))
}
