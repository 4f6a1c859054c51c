package report

import (
    "bufio"
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "log/slog"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/stretchr/testify/require"
    "go.opentelemetry.io/otel/codes"
    sdkmetric "go.opentelemetry.io/otel/sdk/metric"
    "go.opentelemetry.io/otel/sdk/metric/metricdata"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    "go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func corruptedEvent(t *testing.T, reporter engine.Reporter) engine.Event {
    t.Helper()
    recorder := &Recorder{}
    stack := engine.NewStack(engine.NumberCodec[int64](),
        engine.WithReporter(Multi(recorder, reporter)),
        engine.WithCallSite(engine.CallSite{Label: "s"}))
    require.NoError(t, stack.Construct(4))
    require.NoError(t, stack.Push(5))
    require.NoError(t, stack.InjectFault(guard.Trailing, 0, 0))
    require.ErrorIs(t, stack.Push(7), engine.ErrCanaryMismatch)

    events := recorder.Events()
    require.Len(t, events, 1)
    return events[0]
}

func TestRecorder(t *testing.T) {
    recorder := &Recorder{}
    stack := engine.NewStack(engine.NumberCodec[int32](), engine.WithReporter(recorder))
    require.NoError(t, stack.Construct(0))
    require.ErrorIs(t, stack.Pop(nil), engine.ErrEmpty)
    require.ErrorIs(t, stack.Construct(0), engine.ErrAlreadyConstructed)

    events := recorder.Events()
    require.Len(t, events, 2)
    require.Equal(t, "pop", events[0].Op)
    require.Equal(t, engine.Empty, events[0].Diagnosis)
    require.Equal(t, "construct", events[1].Op)
    require.Equal(t, engine.AlreadyConstructed, events[1].Diagnosis)
    require.Equal(t, stack.ID(), events[1].Snapshot.ID)

    recorder.Reset()
    require.Empty(t, recorder.Events())
}

func TestMulti(t *testing.T) {
    first, second := &Recorder{}, &Recorder{}
    boom := errors.New("boom")
    failing := engine.ReporterFunc(func(engine.Event) error { return boom })

    err := Multi(first, failing, second, failing).Report(engine.Event{Op: "push", Diagnosis: engine.HashMismatch})
    require.ErrorIs(t, err, boom)
    require.Len(t, first.Events(), 1)
    require.Len(t, second.Events(), 1)

    require.NoError(t, Multi(first, second).Report(engine.Event{}))
    require.NoError(t, Multi().Report(engine.Event{}))
}

func TestLogReporter(t *testing.T) {
    var buf bytes.Buffer
    logger := slog.New(slog.NewJSONHandler(&buf, nil))
    reporter := NewLogReporter(logger)

    event := corruptedEvent(t, reporter)
    require.Equal(t, engine.CanaryMismatch, event.Diagnosis)

    require.NoError(t, reporter.Report(engine.Event{Op: "pop", Diagnosis: engine.Empty, Time: time.Now()}))

    var records []map[string]any
    scanner := bufio.NewScanner(&buf)
    for scanner.Scan() {
        var record map[string]any
        require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
        records = append(records, record)
    }
    require.Len(t, records, 2)

    require.Equal(t, "ERROR", records[0]["level"])
    require.Equal(t, "push", records[0]["op"])
    require.Equal(t, []any{"CANARY_MISMATCH"}, records[0]["diagnosis"])
    require.Equal(t, "s", records[0]["label"])

    require.Equal(t, "WARN", records[1]["level"])
    require.Equal(t, []any{"EMPTY"}, records[1]["diagnosis"])
}

func TestFileReporter(t *testing.T) {
    path := filepath.Join(t.TempDir(), "report.json")
    reporter := NewFileReporter(path)

    require.ErrorIs(t, reporter.Report(engine.Event{}), ErrNotOpen)

    require.NoError(t, reporter.Open())
    require.NoError(t, reporter.Open())
    corruptedEvent(t, reporter)
    require.NoError(t, reporter.Close())
    require.NoError(t, reporter.Close())
    require.ErrorIs(t, reporter.Report(engine.Event{}), ErrNotOpen)

    data, err := os.ReadFile(path)
    require.NoError(t, err)

    var record struct {
        Op        string          `json:"op"`
        Diagnosis []string        `json:"diagnosis"`
        Snapshot  engine.Snapshot `json:"snapshot"`
    }
    require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
    require.Equal(t, "push", record.Op)
    require.Equal(t, []string{"CANARY_MISMATCH"}, record.Diagnosis)
    require.Equal(t, 1, record.Snapshot.Size)
    require.Equal(t, 4, record.Snapshot.Capacity)
    require.Len(t, record.Snapshot.Slots, 4)
    require.True(t, record.Snapshot.Slots[0].Live)
    require.True(t, record.Snapshot.Slots[1].Poisoned)
    require.NotEqual(t, guard.TrailingCanary, record.Snapshot.TrailingCanary)
    require.Equal(t, guard.LeadingCanary, record.Snapshot.LeadingCanary)
}

func TestTraceReporter(t *testing.T) {
    spans := tracetest.NewSpanRecorder()
    tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
    reader := sdkmetric.NewManualReader()
    mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

    reporter, err := NewTraceReporter(tp.Tracer("test"), mp.Meter("test"))
    require.NoError(t, err)

    corruptedEvent(t, reporter)
    require.NoError(t, reporter.Report(engine.Event{Op: "pop", Diagnosis: engine.Empty}))

    ended := spans.Ended()
    require.Len(t, ended, 2)

    require.Equal(t, "stack.push", ended[0].Name())
    require.Equal(t, codes.Error, ended[0].Status().Code)
    require.Len(t, ended[0].Events(), 1)
    require.Equal(t, "CANARY_MISMATCH", ended[0].Events()[0].Name)

    require.Equal(t, "stack.pop", ended[1].Name())
    require.Equal(t, codes.Unset, ended[1].Status().Code)

    var rm metricdata.ResourceMetrics
    require.NoError(t, reader.Collect(context.Background(), &rm))
    require.Len(t, rm.ScopeMetrics, 1)
    require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
    require.Equal(t, diagnosisCounterName, rm.ScopeMetrics[0].Metrics[0].Name)

    sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
    require.True(t, ok)
    var total int64
    for _, dp := range sum.DataPoints {
        total += dp.Value
    }
    require.Equal(t, int64(2), total)
}

func TestNewSink(t *testing.T) {
    var buf bytes.Buffer
    logger := slog.New(slog.NewJSONHandler(&buf, nil))
    path := filepath.Join(t.TempDir(), "sink.json")

    sink, closer, err := NewSink(logger, path)
    require.NoError(t, err)
    require.NoError(t, sink.Report(engine.Event{Op: "pop", Diagnosis: engine.Empty}))
    require.NoError(t, closer.Close())

    require.Contains(t, buf.String(), `"EMPTY"`)
    data, err := os.ReadFile(path)
    require.NoError(t, err)
    require.Contains(t, string(data), `"EMPTY"`)

    sink, closer, err = NewSink(logger, "")
    require.NoError(t, err)
    require.NoError(t, sink.Report(engine.Event{Op: "pop", Diagnosis: engine.Empty}))
    require.NoError(t, closer.Close())
}
