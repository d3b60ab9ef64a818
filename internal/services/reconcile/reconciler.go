package reconcile

import (
	"context"
	"time"

	"wallet-gateway/internal/models"
	"wallet-gateway/internal/services/tracing"
	"wallet-gateway/pkg/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 12
	DefaultInterval    = 5 * time.Second
)

// State is the reconciliation outcome of one refund.
type State int

const (
	StateUnknown State = iota
	StateProcessing
	StateSucceeded
	StateFailed
	StateNotFound
	// StateIndeterminate means attempts ran out while still processing. It
	// needs manual follow-up and is neither success nor failure.
	StateIndeterminate
)

func (s State) String() string {
	switch s {
	case StateProcessing:
		return "processing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateNotFound:
		return "not_found"
	case StateIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Terminal reports whether polling stops at s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateNotFound
}

// Inquirer is the refund inquiry operation.
type Inquirer interface {
	InquiryRefund(ctx context.Context, req *models.InquiryRefundRequest) (*models.InquiryRefundResponse, error)
}

// OutcomePublisher receives outcomes that need manual review.
type OutcomePublisher interface {
	PublishIndeterminate(ctx context.Context, outcome *Outcome) error
}

// MetricsRecorder observes reconciliation loops.
type MetricsRecorder interface {
	ReconciliationStarted()
	ReconciliationDone()
	RecordReconciliation(state string, attempts int, elapsed time.Duration)
}

// SpanStarter opens the spans around a loop and its attempts.
type SpanStarter interface {
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

// Outcome is the result of one reconciliation loop.
type Outcome struct {
	RefundRequestID string
	State           State
	Attempts        int
	LastInquiry     *models.InquiryRefundResponse
	LastError       error
	Elapsed         time.Duration
}

// Reconciler polls refund inquiry until a terminal state or the attempt
// budget runs out. Loops for different refunds share nothing.
type Reconciler struct {
	inquirer  Inquirer
	config    Config
	publisher OutcomePublisher
	metrics   MetricsRecorder
	tracer    SpanStarter
	logger    *zap.Logger
	wait      func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// Option customises a Reconciler.
type Option func(*Reconciler)

func WithPublisher(p OutcomePublisher) Option {
	return func(r *Reconciler) { r.publisher = p }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func WithTracer(t SpanStarter) Option {
	return func(r *Reconciler) { r.tracer = t }
}

// WithWait replaces the inter-attempt delay, used by tests.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reconciler) { r.wait = wait }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(inquirer Inquirer, cfg Config, logger *zap.Logger, opts ...Option) *Reconciler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	r := &Reconciler{
		inquirer: inquirer,
		config:   cfg,
		tracer:   tracing.NewService("wallet-gateway/reconcile", false),
		logger:   logger,
		wait:     sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs the loop on the calling goroutine. It returns an error only
// for a missing id or a cancelled ctx; every other ending is an Outcome.
func (r *Reconciler) Reconcile(ctx context.Context, refundRequestID string) (*Outcome, error) {
	if refundRequestID == "" {
		return nil, errors.NewValidationError("refundRequestId is required")
	}

	if r.metrics != nil {
		r.metrics.ReconciliationStarted()
		defer r.metrics.ReconciliationDone()
	}

	ctx, span := r.tracer.StartSpan(ctx, "refund reconciliation")
	defer span.End()
	tracing.AddSpanAttributes(span, map[string]string{"refund_request_id": refundRequestID})

	start := r.now()
	outcome := &Outcome{RefundRequestID: refundRequestID, State: StateUnknown}

	r.logger.Info("refund reconciliation started",
		zap.String("refund_request_id", refundRequestID),
		zap.String("trace_id", tracing.TraceIDFromContext(ctx)),
		zap.Int("max_attempts", r.config.MaxAttempts),
		zap.Duration("interval", r.config.Interval),
	)

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		outcome.Attempts = attempt

		if r.inquire(ctx, outcome, attempt) {
			return r.finish(ctx, span, outcome, start), nil
		}

		if attempt == r.config.MaxAttempts {
			break
		}
		if err := r.wait(ctx, r.config.Interval); err != nil {
			outcome.Elapsed = r.now().Sub(start)
			tracing.RecordError(span, err)
			return outcome, err
		}
	}

	outcome.State = StateIndeterminate
	return r.finish(ctx, span, outcome, start), nil
}

// inquire runs one attempt and reports whether it reached a terminal state.
func (r *Reconciler) inquire(ctx context.Context, outcome *Outcome, attempt int) bool {
	ctx, span := r.tracer.StartSpan(ctx, "refund inquiry attempt")
	defer span.End()
	span.SetAttributes(attribute.Int("attempt", attempt))

	resp, err := r.inquirer.InquiryRefund(ctx, &models.InquiryRefundRequest{RefundRequestID: outcome.RefundRequestID})
	if err != nil {
		outcome.LastError = err
		tracing.RecordError(span, err)
		r.logger.Warn("refund inquiry attempt failed",
			zap.String("refund_request_id", outcome.RefundRequestID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return false
	}

	outcome.LastInquiry = resp
	outcome.LastError = nil
	outcome.State = r.classify(outcome.RefundRequestID, resp)
	tracing.AddSpanAttributes(span, map[string]string{
		"result_status": string(resp.Result.ResultStatus),
		"refund_status": resp.RefundStatus,
	})
	return outcome.State.Terminal()
}

// Start runs Reconcile on its own goroutine. The loop is detached from ctx's
// cancellation so the refund is reconciled even if the caller stops waiting;
// the buffered channel receives exactly one outcome.
func (r *Reconciler) Start(ctx context.Context, refundRequestID string) <-chan *Outcome {
	ch := make(chan *Outcome, 1)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer close(ch)
		outcome, err := r.Reconcile(detached, refundRequestID)
		if err != nil {
			r.logger.Error("refund reconciliation aborted",
				zap.String("refund_request_id", refundRequestID),
				zap.Error(err),
			)
			if outcome == nil {
				return
			}
		}
		ch <- outcome
	}()

	return ch
}

// classify maps one inquiry reply to a state. Combinations not listed stay
// Processing and are polled again.
func (r *Reconciler) classify(refundRequestID string, resp *models.InquiryRefundResponse) State {
	result := resp.Result

	if result.ResultStatus == models.ResultFailed {
		if result.ResultCode == models.CodeRefundNotExist || result.ResultCode == models.CodeNotExist {
			return StateNotFound
		}
		r.logger.Warn("refund inquiry failed, polling again",
			zap.String("refund_request_id", refundRequestID),
			zap.String("result_code", result.ResultCode),
			zap.String("result_message", result.ResultMessage),
		)
		return StateProcessing
	}

	switch resp.RefundStatus {
	case models.RefundStatusSuccess:
		if result.ResultStatus == models.ResultSuccess {
			return StateSucceeded
		}
	case models.RefundStatusFail:
		return StateFailed
	case models.RefundStatusProcessing:
		return StateProcessing
	}

	r.logger.Warn("unexpected refund inquiry reply, polling again",
		zap.String("refund_request_id", refundRequestID),
		zap.String("result_status", string(result.ResultStatus)),
		zap.String("refund_status", resp.RefundStatus),
	)
	return StateProcessing
}

func (r *Reconciler) finish(ctx context.Context, span trace.Span, outcome *Outcome, start time.Time) *Outcome {
	outcome.Elapsed = r.now().Sub(start)
	span.SetAttributes(
		attribute.String("state", outcome.State.String()),
		attribute.Int("attempts", outcome.Attempts),
	)

	fields := []zap.Field{
		zap.String("refund_request_id", outcome.RefundRequestID),
		zap.String("state", outcome.State.String()),
		zap.Int("attempts", outcome.Attempts),
		zap.Duration("elapsed", outcome.Elapsed),
	}
	if outcome.State == StateIndeterminate {
		r.logger.Warn("refund still unknown after polling, manual review required", fields...)
		if r.publisher != nil {
			if err := r.publisher.PublishIndeterminate(ctx, outcome); err != nil {
				r.logger.Error("failed to publish refund for review", append(fields, zap.Error(err))...)
			}
		}
	} else {
		r.logger.Info("refund reconciliation finished", fields...)
	}

	if r.metrics != nil {
		r.metrics.RecordReconciliation(outcome.State.String(), outcome.Attempts, outcome.Elapsed)
	}
	return outcome
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
