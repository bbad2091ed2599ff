package tracing

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ariefcatur/go-clothing-rental"

// Options selects where spans go. With neither Endpoint nor Exporter set, tracing
// stays a no-op.
type Options struct {
	Service     string
	Environment string

	Endpoint    string // OTLP/HTTP collector, host:port
	Insecure    bool
	SampleRatio float64 // share of root spans kept; child spans follow their parent

	// Exporter replaces the OTLP exporter and receives every span as it ends.
	Exporter sdktrace.SpanExporter
}

type Shutdown func(context.Context) error

// Tracer is what the rental and auth flows start their spans from.
func Tracer() trace.Tracer { return otel.Tracer(tracerName) }

// Setup installs the global tracer provider and a W3C trace-context + baggage propagator.
func Setup(ctx context.Context, logger *logrus.Logger, opts Options) (Shutdown, error) {
	var batching sdktrace.TracerProviderOption
	switch {
	case opts.Exporter != nil:
		batching = sdktrace.WithSyncer(opts.Exporter)
	case opts.Endpoint != "":
		clientOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		batching = sdktrace.WithBatcher(exp)
	default:
		logger.Info("tracing disabled: no OTLP endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	host, _ := os.Hostname()
	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(opts.Service),
		semconv.ServiceInstanceID(host),
		semconv.DeploymentEnvironment(opts.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		batching,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.WithFields(logrus.Fields{
		"endpoint": opts.Endpoint, "sample_ratio": opts.SampleRatio,
	}).Info("tracing initialized")

	return func(ctx context.Context) error {
		if err := tp.ForceFlush(ctx); err != nil {
			logger.WithError(err).Warn("tracing flush failed")
		}
		return tp.Shutdown(ctx)
	}, nil
}
