package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Service hands out the tracer used for inbound requests and gateway calls.
// The exporter is whatever TracerProvider the process installs globally.
type Service struct {
	tracer trace.Tracer
}

// NewService uses the global provider when enabled and a no-op tracer
// otherwise.
func NewService(serviceName string, enabled bool) *Service {
	if !enabled {
		return &Service{tracer: noop.NewTracerProvider().Tracer(serviceName)}
	}
	return &Service{tracer: otel.Tracer(serviceName)}
}

func (s *Service) Tracer() trace.Tracer {
	return s.tracer
}

func (s *Service) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, opts...)
}

// StartServerSpan starts the span for one inbound HTTP request.
func (s *Service) StartServerSpan(ctx context.Context, method, route string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	)
	return ctx, span
}

// AddSpanAttributes adds string attributes to span
func AddSpanAttributes(span trace.Span, attrs map[string]string) {
	attributes := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		attributes = append(attributes, attribute.String(k, v))
	}
	span.SetAttributes(attributes...)
}

// RecordError marks span failed; a nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TraceIDFromContext returns the active trace id, or "" without a valid span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}
