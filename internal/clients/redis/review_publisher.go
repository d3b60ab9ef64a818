package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"wallet-gateway/internal/services/reconcile"
	"wallet-gateway/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultReviewStream receives refunds whose outcome is still unknown.
const DefaultReviewStream = "wallet:refunds:review"

const publishTimeout = 2 * time.Second

// StreamClient is the subset of Redis used for publishing
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// ReviewMetrics observes publish attempts.
type ReviewMetrics interface {
	RecordReviewPublished(success bool)
}

// ReviewPublisher appends indeterminate reconciliation outcomes to a Redis
// stream for manual follow-up. Nothing in this service reads the stream back.
type ReviewPublisher struct {
	redis   StreamClient
	stream  string
	metrics ReviewMetrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewReviewPublisher(rdb StreamClient, stream string, metrics ReviewMetrics, logger *zap.Logger) *ReviewPublisher {
	if stream == "" {
		stream = DefaultReviewStream
	}
	return &ReviewPublisher{
		redis:   rdb,
		stream:  stream,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

type reviewEntry struct {
	RefundRequestID string `json:"refund_request_id"`
	State           string `json:"state"`
	Attempts        int    `json:"attempts"`
	ElapsedMillis   int64  `json:"elapsed_ms"`
	ResultStatus    string `json:"result_status,omitempty"`
	ResultCode      string `json:"result_code,omitempty"`
	RefundStatus    string `json:"refund_status,omitempty"`
	LastError       string `json:"last_error,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// PublishIndeterminate implements reconcile.OutcomePublisher.
func (p *ReviewPublisher) PublishIndeterminate(ctx context.Context, outcome *reconcile.Outcome) error {
	entry := reviewEntry{
		RefundRequestID: outcome.RefundRequestID,
		State:           outcome.State.String(),
		Attempts:        outcome.Attempts,
		ElapsedMillis:   outcome.Elapsed.Milliseconds(),
		Timestamp:       p.now().Unix(),
	}
	if outcome.LastInquiry != nil {
		entry.ResultStatus = string(outcome.LastInquiry.Result.ResultStatus)
		entry.ResultCode = outcome.LastInquiry.Result.ResultCode
		entry.RefundStatus = outcome.LastInquiry.RefundStatus
	}
	if outcome.LastError != nil {
		entry.LastError = outcome.LastError.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		p.record(false)
		return errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "review serialization failed", outcome.RefundRequestID)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":              string(data),
			"refund_request_id": outcome.RefundRequestID,
			"attempts":          strconv.Itoa(outcome.Attempts),
		},
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	id, err := p.redis.XAdd(pubCtx, args).Result()
	if err != nil {
		p.record(false)
		return errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "review publish failed", "redis error")
	}
	p.record(true)

	p.logger.Info("refund published for manual review",
		zap.String("refund_request_id", outcome.RefundRequestID),
		zap.String("stream", p.stream),
		zap.String("entry_id", id),
	)
	return nil
}

func (p *ReviewPublisher) record(success bool) {
	if p.metrics != nil {
		p.metrics.RecordReviewPublished(success)
	}
}
