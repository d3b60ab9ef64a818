package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"wallet-gateway/internal/models"
	"wallet-gateway/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// scriptedInquirer replays one reply (or error) per call; the last entry
// repeats once the script runs out.
type scriptedInquirer struct {
	mu     sync.Mutex
	script []step
	calls  int
}

type step struct {
	resp *models.InquiryRefundResponse
	err  error
}

func (s *scriptedInquirer) InquiryRefund(ctx context.Context, req *models.InquiryRefundRequest) (*models.InquiryRefundResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i].resp, s.script[i].err
}

func reply(status models.ResultStatus, code, refundStatus string) step {
	return step{resp: &models.InquiryRefundResponse{
		Result:          models.GatewayResult{ResultStatus: status, ResultCode: code},
		RefundRequestID: "REFUND-1",
		RefundStatus:    refundStatus,
	}}
}

var (
	processing = reply(models.ResultSuccess, "SUCCESS", models.RefundStatusProcessing)
	succeeded  = reply(models.ResultSuccess, "SUCCESS", models.RefundStatusSuccess)
)

// fakeClock advances only when the reconciler waits.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishIndeterminate(ctx context.Context, outcome *Outcome) error {
	return m.Called(ctx, outcome).Error(0)
}

func newTestReconciler(inq Inquirer, clock *fakeClock, opts ...Option) *Reconciler {
	opts = append([]Option{WithWait(clock.Wait), WithClock(clock.Now)}, opts...)
	return NewReconciler(inq, Config{}, zap.NewNop(), opts...)
}

func TestReconcile_SucceedsOnFourthAttempt(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing, processing, processing, succeeded}}
	clock := newFakeClock()

	outcome, err := newTestReconciler(inq, clock).Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Equal(t, 4, inq.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, clock.waits)
	assert.Equal(t, 15*time.Second, outcome.Elapsed)
}

func TestReconcile_ExhaustedIsIndeterminate(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing}}
	clock := newFakeClock()
	publisher := new(mockPublisher)
	publisher.On("PublishIndeterminate", mock.Anything, mock.MatchedBy(func(o *Outcome) bool {
		return o.State == StateIndeterminate && o.RefundRequestID == "REFUND-1"
	})).Return(nil).Once()

	outcome, err := newTestReconciler(inq, clock, WithPublisher(publisher)).Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateIndeterminate, outcome.State)
	assert.NotEqual(t, StateFailed, outcome.State)
	assert.NotEqual(t, StateSucceeded, outcome.State)
	assert.False(t, outcome.State.Terminal())
	assert.Equal(t, 12, inq.calls)
	assert.Len(t, clock.waits, 11, "no delay after the final attempt")
	assert.Equal(t, 55*time.Second, outcome.Elapsed)
	publisher.AssertExpectations(t)
}

func TestReconcile_NotFoundStopsImmediately(t *testing.T) {
	for _, code := range []string{models.CodeNotExist, models.CodeRefundNotExist} {
		t.Run(code, func(t *testing.T) {
			inq := &scriptedInquirer{script: []step{reply(models.ResultFailed, code, ""), succeeded}}
			clock := newFakeClock()

			outcome, err := newTestReconciler(inq, clock).Reconcile(context.Background(), "REFUND-1")

			require.NoError(t, err)
			assert.Equal(t, StateNotFound, outcome.State)
			assert.Equal(t, 1, inq.calls)
			assert.Empty(t, clock.waits)
		})
	}
}

func TestReconcile_FailStatusIsTerminal(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing, reply(models.ResultSuccess, "SUCCESS", models.RefundStatusFail)}}

	outcome, err := newTestReconciler(inq, newFakeClock()).Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestReconcile_TransportErrorDoesNotAbort(t *testing.T) {
	transportErr := errors.NewTransportError(fmt.Errorf("connection reset"), "POST /v1/payments/inquiryRefund")
	inq := &scriptedInquirer{script: []step{{err: transportErr}, succeeded}}
	clock := newFakeClock()

	outcome, err := newTestReconciler(inq, clock).Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.Equal(t, 2, inq.calls)
	assert.Equal(t, []time.Duration{5 * time.Second}, clock.waits, "next attempt still waits the fixed delay")
	assert.Nil(t, outcome.LastError)
}

func TestReconcile_UnexpectedCombinationsKeepPolling(t *testing.T) {
	inq := &scriptedInquirer{script: []step{
		reply(models.ResultFailed, "SYSTEM_BUSY", ""),
		reply(models.ResultUnknown, "UNKNOWN", ""),
		reply(models.ResultAccepted, "", models.RefundStatusSuccess),
		reply(models.ResultSuccess, "SUCCESS", "SOMETHING_NEW"),
		succeeded,
	}}

	outcome, err := newTestReconciler(inq, newFakeClock()).Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.Equal(t, 5, outcome.Attempts)
}

func TestReconcile_ConfigOverrides(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing}}
	clock := newFakeClock()
	r := NewReconciler(inq, Config{MaxAttempts: 3, Interval: time.Second}, zap.NewNop(), WithWait(clock.Wait), WithClock(clock.Now))

	outcome, err := r.Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateIndeterminate, outcome.State)
	assert.Equal(t, 3, inq.calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.waits)
}

func TestReconcile_RequiresID(t *testing.T) {
	_, err := newTestReconciler(&scriptedInquirer{}, newFakeClock()).Reconcile(context.Background(), "")

	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestReconcile_CancelledContextStopsWaiting(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReconciler(inq, Config{Interval: time.Hour}, zap.NewNop())
	outcome, err := r.Reconcile(ctx, "REFUND-1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, outcome.Attempts)
}

func TestStart_SurvivesCallerCancellation(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing, processing, succeeded}}
	r := NewReconciler(inq, Config{Interval: 10 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Start(ctx, "REFUND-1")
	cancel()

	select {
	case outcome := <-ch:
		require.NotNil(t, outcome)
		assert.Equal(t, StateSucceeded, outcome.State)
		assert.Equal(t, 3, outcome.Attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("reconciliation did not finish")
	}
}

func TestReconcile_DefaultWaitHonoursInterval(t *testing.T) {
	inq := &scriptedInquirer{script: []step{processing, processing, succeeded}}
	r := NewReconciler(inq, Config{Interval: 20 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	outcome, err := r.Reconcile(context.Background(), "REFUND-1")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, outcome.State)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.GreaterOrEqual(t, outcome.Elapsed, 40*time.Millisecond)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.DeadlineExceeded)
}

type recordingTracer struct {
	tracer trace.Tracer
}

func (r recordingTracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, opts...)
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestReconcile_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	transportErr := errors.NewTransportError(fmt.Errorf("connection reset"), "POST /v1/payments/inquiryRefund")
	inq := &scriptedInquirer{script: []step{{err: transportErr}, succeeded}}
	r := newTestReconciler(inq, newFakeClock(), WithTracer(recordingTracer{tracer: provider.Tracer("test")}))

	_, err := r.Reconcile(context.Background(), "REFUND-1")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	first, second, loop := spans[0], spans[1], spans[2]
	assert.Equal(t, "refund inquiry attempt", first.Name())
	assert.Equal(t, int64(1), spanAttr(first, "attempt").AsInt64())
	assert.Equal(t, "Error", first.Status().Code.String())
	assert.Len(t, first.Events(), 1)

	assert.Equal(t, int64(2), spanAttr(second, "attempt").AsInt64())
	assert.Equal(t, "S", spanAttr(second, "result_status").AsString())
	assert.Equal(t, loop.SpanContext().SpanID(), second.Parent().SpanID())

	assert.Equal(t, "refund reconciliation", loop.Name())
	assert.Equal(t, "REFUND-1", spanAttr(loop, "refund_request_id").AsString())
	assert.Equal(t, "succeeded", spanAttr(loop, "state").AsString())
	assert.Equal(t, int64(2), spanAttr(loop, "attempts").AsInt64())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "succeeded", StateSucceeded.String())
	assert.Equal(t, "indeterminate", StateIndeterminate.String())
	assert.Equal(t, "not_found", StateNotFound.String())
	assert.Equal(t, "unknown", State(42).String())
}
