package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies repository spans in trace backends.
const instrumentationName = "tutela/repository"

// OTelTracer adapts OpenTelemetry to the Tracer interface so the monitor
// and stores never import OTel APIs directly.
type OTelTracer struct {
	tracer trace.Tracer
}

// OTelOption configures the OTelTracer.
type OTelOption func(*OTelTracer)

// WithOTelTracer injects a pre-configured OpenTelemetry tracer, mainly for
// tests running against a recording provider.
func WithOTelTracer(t trace.Tracer) OTelOption {
	return func(o *OTelTracer) { o.tracer = t }
}

// NewOTel builds the adapter. Without options it draws from the global
// provider under the tutela/repository instrumentation name.
func NewOTel(opts ...OTelOption) *OTelTracer {
	ot := &OTelTracer{}
	for _, opt := range opts {
		opt(ot)
	}
	if ot.tracer == nil {
		ot.tracer = otel.Tracer(instrumentationName)
	}
	return ot
}

// Start opens a span; the returned context carries it for child operations.
func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(otelAttrs(attrs)...))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

// End closes the span. A non-nil err marks it failed and records the error.
func (s *otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(otelAttrs(attrs)...)
}

func (s *otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(otelAttrs(attrs)...))
}

// otelAttrs converts attributes, stringifying any type the switch does not
// know so no recorded value is silently dropped.
func otelAttrs(attrs []Attribute) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		switch v := attr.Value.(type) {
		case string:
			kvs = append(kvs, attribute.String(attr.Key, v))
		case bool:
			kvs = append(kvs, attribute.Bool(attr.Key, v))
		case int:
			kvs = append(kvs, attribute.Int(attr.Key, v))
		case int64:
			kvs = append(kvs, attribute.Int64(attr.Key, v))
		case float64:
			kvs = append(kvs, attribute.Float64(attr.Key, v))
		default:
			kvs = append(kvs, attribute.String(attr.Key, fmt.Sprint(v)))
		}
	}
	return kvs
}

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Span   = (*otelSpan)(nil)
)
