package metrics

import (
	"time"

	"wallet-gateway/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service provides Prometheus metrics for the wallet gateway integration
type Service struct {
	// HTTP boundary
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	requestResultsTotal *prometheus.CounterVec
	sloBreachesTotal    *prometheus.CounterVec

	// Gateway transport
	gatewayCallsTotal    *prometheus.CounterVec
	gatewayCallDuration  *prometheus.HistogramVec
	gatewayBreakerState  prometheus.Gauge
	operationResultTotal *prometheus.CounterVec

	// Claims tokens
	tokensIssuedTotal  prometheus.Counter
	tokenFailuresTotal *prometheus.CounterVec

	// Reconciliation
	reconciliationsTotal    *prometheus.CounterVec
	reconciliationAttempts  prometheus.Histogram
	reconciliationDuration  prometheus.Histogram
	reconciliationsInFlight prometheus.Gauge
	reviewPublishedTotal    *prometheus.CounterVec
}

// NewService registers all collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewService(reg prometheus.Registerer) *Service {
	factory := promauto.With(reg)

	return &Service{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_requests_total",
				Help: "Total number of HTTP requests by endpoint and status class",
			},
			[]string{"endpoint", "method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_request_duration_seconds",
				Help:    "HTTP request processing time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "status"},
		),
		requestResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_request_results_total",
				Help: "Requests answered from a gateway result, by endpoint and result status",
			},
			[]string{"endpoint", "result_status"},
		),
		sloBreachesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_request_slo_breaches_total",
				Help: "Requests slower than their route latency objective",
			},
			[]string{"endpoint"},
		),

		gatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_gateway_calls_total",
				Help: "Total number of signed gateway calls by path and transport outcome",
			},
			[]string{"path", "outcome"},
		),
		gatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_gateway_call_duration_seconds",
				Help:    "Gateway round trip time in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
			},
			[]string{"path"},
		),
		gatewayBreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wallet_gateway_breaker_state",
				Help: "Gateway circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
		operationResultTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_gateway_operation_results_total",
				Help: "Gateway operation results by operation and result status",
			},
			[]string{"operation", "result_status"},
		),

		tokensIssuedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_claims_tokens_issued_total",
				Help: "Total number of claims tokens issued",
			},
		),
		tokenFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_claims_token_failures_total",
				Help: "Claims tokens rejected, by failure kind",
			},
			[]string{"kind"},
		),

		reconciliationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_refund_reconciliations_total",
				Help: "Finished refund reconciliations by final state",
			},
			[]string{"state"},
		),
		reconciliationAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallet_refund_reconciliation_attempts",
				Help:    "Inquiry attempts used per reconciliation",
				Buckets: prometheus.LinearBuckets(1, 1, 12),
			},
		),
		reconciliationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wallet_refund_reconciliation_duration_seconds",
				Help:    "Wall-clock time per reconciliation",
				Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90},
			},
		),
		reconciliationsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wallet_refund_reconciliations_in_flight",
				Help: "Reconciliation loops currently running",
			},
		),
		reviewPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_refund_review_published_total",
				Help: "Indeterminate refunds published for manual review",
			},
			[]string{"status"},
		),
	}
}

func (s *Service) RecordRequest(endpoint, method, status string) {
	s.requestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

func (s *Service) RecordRequestDuration(endpoint, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

func (s *Service) RecordRequestResult(endpoint, resultStatus string) {
	s.requestResultsTotal.WithLabelValues(endpoint, resultStatus).Inc()
}

func (s *Service) RecordSLOBreach(endpoint string) {
	s.sloBreachesTotal.WithLabelValues(endpoint).Inc()
}

// RecordGatewayCall is called once per signed gateway call.
func (s *Service) RecordGatewayCall(path, outcome string, duration time.Duration) {
	s.gatewayCallsTotal.WithLabelValues(path, outcome).Inc()
	s.gatewayCallDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func (s *Service) SetBreakerState(state int) {
	s.gatewayBreakerState.Set(float64(state))
}

func (s *Service) RecordOperationResult(operation string, status models.ResultStatus) {
	s.operationResultTotal.WithLabelValues(operation, status.String()).Inc()
}

func (s *Service) RecordTokenIssued() {
	s.tokensIssuedTotal.Inc()
}

func (s *Service) RecordTokenFailure(kind string) {
	s.tokenFailuresTotal.WithLabelValues(kind).Inc()
}

func (s *Service) RecordReconciliation(state string, attempts int, elapsed time.Duration) {
	s.reconciliationsTotal.WithLabelValues(state).Inc()
	s.reconciliationAttempts.Observe(float64(attempts))
	s.reconciliationDuration.Observe(elapsed.Seconds())
}

// ReconciliationStarted and ReconciliationDone bracket one loop.
func (s *Service) ReconciliationStarted() {
	s.reconciliationsInFlight.Inc()
}

func (s *Service) ReconciliationDone() {
	s.reconciliationsInFlight.Dec()
}

func (s *Service) RecordReviewPublished(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	s.reviewPublishedTotal.WithLabelValues(status).Inc()
}
