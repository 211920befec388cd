package instrument

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sigil-ui/sigil/pkg/observer"
)

// Default tracer name for the runtime.
const defaultTracerName = "sigil"

// TracerConfig configures reconciliation tracing.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "sigil").
	TracerName string

	// AttributeExtractor adds custom attributes to each pass span.
	AttributeExtractor func(stats observer.PassStats) []attribute.KeyValue
}

// TracerOption configures reconciliation tracing.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(stats observer.PassStats) []attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.AttributeExtractor = extractor
	}
}

// PassTracer emits one span per reconciliation pass.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before starting the runtime:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
type PassTracer struct {
	tracer trace.Tracer
	config TracerConfig
}

// NewPassTracer resolves a tracer from the global provider.
func NewPassTracer(opts ...TracerOption) *PassTracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	return &PassTracer{
		tracer: otel.Tracer(config.TracerName),
		config: config,
	}
}

// OnPass records one completed pass as a span. Pass stats arrive after the
// work is done, so the span is back-dated by the pass duration.
// Wire it through observer.WithOnPass.
func (t *PassTracer) OnPass(stats observer.PassStats) {
	end := time.Now()
	start := end.Add(-stats.Duration)

	attrs := []attribute.KeyValue{
		attribute.Int("sigil.pass.added", stats.Added),
		attribute.Int("sigil.pass.removed", stats.Removed),
		attribute.Int("sigil.pass.tracked", stats.Tracked),
		attribute.Int("sigil.pass.failures", stats.Failures),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(stats)...)
	}

	_, span := t.tracer.Start(
		context.Background(),
		"sigil.reconcile",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)

	if stats.Failures > 0 {
		span.SetStatus(codes.Error, "callback panics recovered during pass")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
