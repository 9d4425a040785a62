package tracer

import "context"

// NoopTracer discards every span. It is what the monitor falls back to when
// tracing is not configured, and it keeps tests free of tracing overhead.
type NoopTracer struct{}

// NewNoop returns a tracer that records nothing.
func NewNoop() *NoopTracer { return &NoopTracer{} }

// Start returns the context unchanged and a span that swallows everything.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}

var (
	_ Tracer = NoopTracer{}
	_ Span   = noopSpan{}
)
