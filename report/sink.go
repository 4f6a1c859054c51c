package report

import (
    "io"
    "log/slog"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/telemetry"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSink combines the log and trace reporters with, when path is not
// empty, a file reporter writing to path. The returned Closer closes the
// file.
func NewSink(logger *slog.Logger, path string) (engine.Reporter, io.Closer, error) {
    tracer, err := NewTraceReporter(telemetry.Tracer(), telemetry.Meter())
    if err != nil {
        return nil, nil, err
    }
    reporters := []engine.Reporter{NewLogReporter(logger), tracer}

    if path == "" {
        return Multi(reporters...), nopCloser{}, nil
    }

    file := NewFileReporter(path)
    if err := file.Open(); err != nil {
        return nil, nil, err
    }
    return Multi(append(reporters, file)...), file, nil
}
