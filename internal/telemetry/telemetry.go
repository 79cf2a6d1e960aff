// Package telemetry sets up OpenTelemetry tracing with an OTLP gRPC exporter.
package telemetry

import (
	"context"
	"time"

	"shoptrends/internal"
	"shoptrends/internal/errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "shoptrends"

// Config configures tracing
type Config struct {
	Enabled      bool
	Endpoint     string
	Insecure     bool
	BatchTimeout time.Duration
}

// Provider owns the tracer provider; a disabled Provider is a no-op
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs the global tracer provider and propagator when cfg.Enabled
func Setup(ctx context.Context, cfg Config, logger *internal.Logger) (*Provider, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if !cfg.Enabled {
		logger.Debug("[Telemetry] tracing disabled")
		return &Provider{}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, errors.ExternalServiceError("otlp", err)
	}

	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}
	p := NewProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
	)
	logger.Info("[Telemetry] exporting traces to %s (insecure=%v)", cfg.Endpoint, cfg.Insecure)
	return p, nil
}

// NewProvider builds a provider from sdk options and installs it globally
func NewProvider(opts ...sdktrace.TracerProviderOption) *Provider {
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))
	tp := sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}
}

// Shutdown flushes pending spans
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Middleware starts a server span per request, named by the matched route
func Middleware() gin.HandlerFunc {
	tracer := otel.Tracer("shoptrends/http")
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
