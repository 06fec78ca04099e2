package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// Default tracer name for sweetstate.
const defaultTracerName = "sweetstate"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "sweetstate").
	TracerName string

	// TracerProvider overrides the global tracer provider.
	TracerProvider trace.TracerProvider

	// IncludeScope adds the scope id to spans. Enabled by default.
	IncludeScope bool

	// Filter determines which updates to trace.
	// Return true to trace the update, false to skip.
	// If nil, all updates are traced.
	Filter func(s store.Inspector, u store.Update) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(s store.Inspector, u store.Update) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeScope enables/disables the scope attribute.
func WithIncludeScope(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeScope = include
	}
}

// WithUpdateFilter sets a filter function for updates.
func WithUpdateFilter(filter func(s store.Inspector, u store.Update) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(s store.Inspector, u store.Update) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:   defaultTracerName,
		IncludeScope: true,
	}
}

// OpenTelemetry creates middleware that records a span per update.
//
// Spans are named "sweetstate.update <action>" and carry the store id,
// name, scope and resulting version. A panic in the rest of the chain is
// recorded on the span and re-raised.
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main():
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) store.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(s store.Inspector) func(store.Next) store.Next {
		return func(next store.Next) store.Next {
			return func(u store.Update) any {
				if config.Filter != nil && !config.Filter(s, u) {
					return next(u)
				}

				attrs := []attribute.KeyValue{
					attribute.String("sweetstate.store", s.ID()),
					attribute.String("sweetstate.store_name", s.Name()),
					attribute.String("sweetstate.action", actionLabel(u.Action)),
				}
				if config.IncludeScope {
					attrs = append(attrs, attribute.String("sweetstate.scope", s.ScopeID()))
				}
				if config.AttributeExtractor != nil {
					attrs = append(attrs, config.AttributeExtractor(s, u)...)
				}

				_, span := tracer.Start(
					context.Background(),
					"sweetstate.update "+actionLabel(u.Action),
					trace.WithSpanKind(trace.SpanKindInternal),
					trace.WithAttributes(attrs...),
				)
				defer span.End()

				defer func() {
					if p := recover(); p != nil {
						span.RecordError(fmt.Errorf("panic: %v", p))
						span.SetStatus(codes.Error, "panic")
						panic(p)
					}
				}()

				res := next(u)

				if err, ok := res.(error); ok && err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				} else {
					span.SetStatus(codes.Ok, "")
				}
				span.SetAttributes(attribute.Int64("sweetstate.version", int64(s.Version())))
				return res
			}
		}
	}
}
