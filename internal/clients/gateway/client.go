package gateway

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wallet-gateway/internal/services/signing"
	"wallet-gateway/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every gateway call.
const DefaultTimeout = 25 * time.Second

const contentType = "application/json; charset=UTF-8"

// Credential identifies the merchant to the gateway. It is built once at
// startup and never mutated.
type Credential struct {
	ClientID         string
	PrivateKey       *rsa.PrivateKey
	BaseURL          string
	GatewayPublicKey *rsa.PublicKey
}

// Config tunes the transport. Zero values fall back to defaults.
type Config struct {
	Timeout time.Duration
	Breaker BreakerConfig
}

// MetricsRecorder receives one observation per gateway call.
type MetricsRecorder interface {
	RecordGatewayCall(path, outcome string, duration time.Duration)
}

// breakerStateRecorder is optionally implemented by a MetricsRecorder.
type breakerStateRecorder interface {
	SetBreakerState(state int)
}

// Client sends signed requests to the wallet gateway. It never retries;
// retry and polling policy belongs to callers.
type Client struct {
	credential Credential
	signer     signing.Signer
	httpClient *http.Client
	breaker    *Breaker
	tracer     trace.Tracer
	metrics    MetricsRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout is overridden by Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock fixes the Request-Time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient validates the credential and builds a client. Any problem with
// the credential is a config error so the process fails at startup.
func NewClient(cred Credential, cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cred.BaseURL == "" {
		return nil, errors.NewConfigError(nil, "gateway base url is required")
	}
	signer, err := signing.NewRSASigner(cred.ClientID, cred.PrivateKey)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		credential: cred,
		signer:     signer,
		httpClient: &http.Client{},
		breaker:    NewBreaker(cfg.Breaker),
		tracer:     otel.Tracer("wallet-gateway/gateway"),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.credential.BaseURL = strings.TrimRight(cred.BaseURL, "/")
	c.httpClient.Timeout = timeout

	return c, nil
}

// ClientID returns the merchant client id sent in every request.
func (c *Client) ClientID() string {
	return c.credential.ClientID
}

// BuildHeaders signs body for method and path at the current instant.
func (c *Client) BuildHeaders(method, path string, body []byte) (map[string]string, error) {
	requestTime := signing.FormatRequestTime(c.now())

	signature, err := c.signer.SignRequest(method, path, requestTime, body)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"Content-Type": contentType,
		"Client-Id":    c.signer.ClientID(),
		"Request-Time": requestTime,
		"Signature":    fmt.Sprintf(signing.HeaderFormat, signature),
	}, nil
}

// Send serializes params once, signs exactly those bytes, and returns the
// gateway's JSON body unchanged. Failures to reach the gateway or to read a
// JSON reply come back as transport errors.
func (c *Client) Send(ctx context.Context, method, path string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "request serialization failed", path)
	}

	headers, err := c.BuildHeaders(method, path, body)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "gateway "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("gateway.path", path),
		attribute.String("gateway.client_id", c.credential.ClientID),
	)

	start := time.Now()
	raw, err := c.do(ctx, method, path, headers, body)
	duration := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "transport_error"
		switch {
		case isBreakerOpen(err):
			outcome = "breaker_open"
		case ctx.Err() != nil:
			outcome = "caller_canceled"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("gateway call failed",
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		c.logger.Debug("gateway call completed",
			zap.String("path", path),
			zap.Duration("duration", duration),
		)
	}
	if c.metrics != nil {
		c.metrics.RecordGatewayCall(path, outcome, duration)
		if bs, ok := c.metrics.(breakerStateRecorder); ok {
			bs.SetBreakerState(int(c.breaker.State()))
		}
	}

	return raw, err
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.credential.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "request construction failed", path)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if err := c.breaker.Allow(); err != nil {
		return nil, errors.NewTransportError(err, path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return nil, errors.NewTransportError(err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(ctx)
		return nil, errors.NewTransportError(err, "failed to read gateway response")
	}

	if !json.Valid(respBody) {
		c.breaker.Record(false)
		return nil, errors.NewTransportError(
			fmt.Errorf("non-JSON response body (status %d)", resp.StatusCode),
			fmt.Sprintf("%s %s", method, path),
		)
	}

	c.breaker.Record(true)
	return json.RawMessage(respBody), nil
}

// recordFailure counts a failed call against the gateway unless the caller's
// own context ended first.
func (c *Client) recordFailure(ctx context.Context) {
	if ctx.Err() != nil {
		c.breaker.Release()
		return
	}
	c.breaker.Record(false)
}
