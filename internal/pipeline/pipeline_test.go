package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hydro-assess-service/internal/assessor"
	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	"github.com/couchcryptid/hydro-assess-service/internal/observability"
	"github.com/couchcryptid/hydro-assess-service/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	mu       sync.Mutex
	events   []domain.RawEvent
	err      error
	failures int64 // calls that return err; 0 means every call
	calls    atomic.Int64
}

// ExtractBatch returns err while failing, hands out every queued event on the
// next call, then blocks until the context is cancelled to simulate an idle
// topic.
func (m *mockExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	n := m.calls.Add(1)
	if m.err != nil && (m.failures == 0 || n <= m.failures) {
		return nil, m.err
	}
	m.mu.Lock()
	if len(m.events) > 0 {
		n := min(batchSize, len(m.events))
		batch := m.events[:n]
		m.events = m.events[n:]
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	failures int
	attempts int
	loaded   []domain.OutputEvent
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func makeRawEvent(t *testing.T, key string, in domain.SiteInput) domain.RawEvent {
	t.Helper()
	value, err := json.Marshal(in)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:       []byte(key),
		Value:     value,
		Topic:     "site-assessment-requests",
		Timestamp: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ptr(v float64) *float64 { return &v }

func hybridSite() domain.SiteInput {
	return domain.SiteInput{
		AreaM2:            150,
		SurfaceType:       "Concrete Roof",
		AnnualRainfallMM:  900,
		HouseholdSize:     4,
		CityType:          "Tier 2 & 3 (Lower Density)",
		WaterCostPerM3:    25,
		PostMonsoonDepthM: ptr(10),
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "req-1", hybridSite())

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Zero(t, ldr.attempts)
}

func TestPipeline_Run_ReadyWhileTopicIdle(t *testing.T) {
	ext := &mockExtractor{}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), newTestMetrics(), 10)
	require.Error(t, p.CheckReadiness(context.Background()), "not ready before Run")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return ext.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, p.CheckReadiness(context.Background()), "blocked extract on an idle topic is still ready")

	cancel()
	require.NoError(t, <-done)
}

func TestPipeline_Run_ReadyAgainAfterExtractRecovers(t *testing.T) {
	ext := &mockExtractor{
		err:      errors.New("dial tcp: connection refused"),
		failures: 1,
		events:   []domain.RawEvent{makeRawEvent(t, "req-7", hybridSite())},
	}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return p.CheckReadiness(context.Background()) != nil
	}, time.Second, 5*time.Millisecond, "extract error clears readiness")
	require.Eventually(t, func() bool {
		return ext.calls.Load() >= 2 && p.CheckReadiness(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond, "a later extract restores readiness")

	cancel()
	require.NoError(t, <-done)
	ldr.mu.Lock()
	defer ldr.mu.Unlock()
	assert.Len(t, ldr.loaded, 1)
}

func TestPipeline_Run_TransformErrorCommitsAndSkips(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawEvent(t, "req-2", hybridSite())
	raw.Commit = func(context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Zero(t, ldr.attempts)
	assert.True(t, committed.Load(), "poison messages are committed so they are not redelivered")
}

func TestPipeline_Run_RetriesFailedLoad(t *testing.T) {
	var commits atomic.Int64
	raw := makeRawEvent(t, "req-3", hybridSite())
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{failures: 2}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	// Two failures back off 200ms then 400ms before the third attempt.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 3, ldr.attempts)
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, int64(1), commits.Load(), "offset is committed only after a successful load")
}

func TestPipeline_Run_NoCommitWhenLoadNeverSucceeds(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawEvent(t, "req-4", hybridSite())
	raw.Commit = func(context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{failures: 1000}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.False(t, committed.Load())
}

func TestPipeline_Run_ExtractErrorNotReady(t *testing.T) {
	ext := &mockExtractor{err: errors.New("dial tcp: connection refused")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestAssessmentTransformer_Transform(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	svc := assessor.New(domain.DefaultRates(), nil, newTestMetrics(), discardLogger())
	tfm := pipeline.NewTransformer(svc)

	raw := makeRawEvent(t, "req-5", hybridSite())
	raw.Headers = map[string]string{"request_id": "abc-123"}

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	var a domain.Assessment
	require.NoError(t, json.Unmarshal(out.Value, &a))
	assert.Equal(t, []byte(a.ID), out.Key)
	assert.Equal(t, "Hybrid System", out.Headers["strategy"])
	assert.Equal(t, "2026-05-01T06:00:00Z", out.Headers["assessed_at"])
	assert.Equal(t, "abc-123", out.Headers["request_id"])

	type summary struct {
		Strategy domain.Strategy
		Store    float64
		Recharge float64
	}
	want := summary{Strategy: domain.StrategyHybrid, Store: 10800, Recharge: 110700}
	got := summary{
		Strategy: a.Recommendation.Strategy,
		Store:    a.Recommendation.VolumeToStoreLiters,
		Recharge: a.Recommendation.VolumeToRechargeLiters,
	}
	if diff := cmp.Diff(want, got, cmpFloat()); diff != "" {
		t.Fatalf("assessment mismatch (-want +got):\n%s", diff)
	}
}

func TestAssessmentTransformer_Errors(t *testing.T) {
	svc := assessor.New(domain.DefaultRates(), nil, newTestMetrics(), discardLogger())
	tfm := pipeline.NewTransformer(svc)

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	assert.ErrorIs(t, err, pipeline.ErrUndecodable)

	bad := hybridSite()
	bad.HouseholdSize = 0
	_, err = tfm.Transform(context.Background(), makeRawEvent(t, "req-6", bad))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func cmpFloat() cmp.Option {
	return cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-6 && d > -1e-6
	})
}
