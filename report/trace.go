package report

import (
    "context"
    "fmt"

    "github.com/aleph-zero/guardstack/engine"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/metric"
    "go.opentelemetry.io/otel/trace"
)

const diagnosisCounterName = "guardstack.stack.diagnoses"

// TraceReporter records each event as a span with one span event per flag
// and counts flags by name.
type TraceReporter struct {
    tracer  trace.Tracer
    counter metric.Int64Counter
}

func NewTraceReporter(tracer trace.Tracer, meter metric.Meter) (*TraceReporter, error) {
    counter, err := meter.Int64Counter(diagnosisCounterName,
        metric.WithDescription("Stack diagnosis flags raised, by flag and operation"),
        metric.WithUnit("{flag}"))
    if err != nil {
        return nil, fmt.Errorf("creating diagnosis counter: %w", err)
    }
    return &TraceReporter{tracer: tracer, counter: counter}, nil
}

func (r *TraceReporter) Report(event engine.Event) error {
    ctx := context.Background()
    snap := event.Snapshot

    _, span := r.tracer.Start(ctx, "stack."+event.Op,
        trace.WithTimestamp(event.Time),
        trace.WithAttributes(
            attribute.String("stack.id", snap.ID),
            attribute.String("stack.label", snap.CallSite.Label),
            attribute.String("stack.state", snap.State.String()),
            attribute.Int("stack.size", snap.Size),
            attribute.Int("stack.capacity", snap.Capacity),
            attribute.StringSlice("stack.diagnosis", event.Diagnosis.Names())))
    defer span.End()

    for _, flag := range event.Diagnosis.Flags() {
        span.AddEvent(flag.String(), trace.WithAttributes(
            attribute.String("message", flag.Messages()[0])))
        r.counter.Add(ctx, 1, metric.WithAttributes(
            attribute.String("flag", flag.String()),
            attribute.String("op", event.Op)))
    }

    if event.Diagnosis.Corrupted() {
        span.SetStatus(codes.Error, event.Diagnosis.String())
    }
    return nil
}
