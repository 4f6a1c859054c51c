package telemetry

import (
    "context"
    "os"
    "time"

    "go.opentelemetry.io/contrib/instrumentation/runtime"
    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
    "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
    otelmetric "go.opentelemetry.io/otel/metric"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/sdk/metric"
    "go.opentelemetry.io/otel/sdk/resource"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
    "go.opentelemetry.io/otel/trace"
)

const systemName = "guardstack"

type IgnoreExporterErrorsHandler struct{}

func (IgnoreExporterErrorsHandler) Handle(err error) {}

// New installs global trace and meter providers exporting over OTLP/HTTP to
// collectorURL. The returned function flushes and stops both.
func New(service, version string, collectorURL string) (func(), error) {
    ctx := context.Background()

    res, err := resource.New(
        ctx,
        resource.WithHost(),
        resource.WithContainer(),
        resource.WithAttributes(semconv.ServiceNameKey.String(service), semconv.ServiceVersion(version)))
    if err != nil {
        return func() {}, err
    }

    te, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(collectorURL), otlptracehttp.WithInsecure())
    if err != nil {
        return func() {}, err
    }

    tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(te), sdktrace.WithResource(res))
    otel.SetTracerProvider(tp)
    otel.SetTextMapPropagator(propagation.TraceContext{})

    me, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(collectorURL), otlpmetrichttp.WithInsecure())
    if err != nil {
        return func() { _ = tp.Shutdown(context.Background()) }, err
    }

    mp := metric.NewMeterProvider(
        metric.WithResource(res),
        metric.WithReader(metric.NewPeriodicReader(
            me,
            metric.WithProducer(runtime.NewProducer()),
            metric.WithInterval(60*time.Second))))

    // The new runtime metrics lack gc count and pause time, so keep the old ones.
    os.Setenv("OTEL_GO_X_DEPRECATED_RUNTIME_METRICS", "true")
    if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(60 * time.Second)); err != nil {
        otel.Handle(err)
    }
    otel.SetMeterProvider(mp)

    // swallow otel errors so they don't spam stdout
    otel.SetErrorHandler(IgnoreExporterErrorsHandler{})

    return func() {
        _ = tp.Shutdown(context.Background())
        _ = mp.Shutdown(context.Background())
    }, nil
}

func SetAttributes(span trace.Span, kv ...attribute.KeyValue) {
    for _, attr := range kv {
        span.SetAttributes(attr)
    }
}

func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
    opts = append(opts, trace.WithAttributes(attribute.String("system.name", systemName)))
    return Tracer().Start(ctx, name, opts...)
}

// Tracer returns the tracer of the global provider.
func Tracer() trace.Tracer {
    return otel.GetTracerProvider().Tracer(systemName)
}

// Meter returns the meter of the global provider.
func Meter() otelmetric.Meter {
    return otel.GetMeterProvider().Meter(systemName)
}
