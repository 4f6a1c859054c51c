// Package report holds the sinks stack diagnoses are rendered to.
package report

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "os"
    "slices"
    "sync"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/hashicorp/go-multierror"
)

var ErrNotOpen = errors.New("report file is not open")

// LogReporter writes one structured record per event. Corruption is logged
// at Error, anything else (an empty pop, a double construct) at Warn.
type LogReporter struct {
    logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
    if logger == nil {
        logger = slog.Default()
    }
    return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(event engine.Event) error {
    level := slog.LevelWarn
    if event.Diagnosis.Corrupted() {
        level = slog.LevelError
    }
    r.logger.LogAttrs(context.Background(), level, "Stack diagnosis", attrs(event)...)
    return nil
}

// FileReporter appends JSON records to a file between Open and Close.
type FileReporter struct {
    lock   sync.Mutex
    path   string
    file   *os.File
    logger *slog.Logger
}

func NewFileReporter(path string) *FileReporter {
    return &FileReporter{path: path}
}

func (r *FileReporter) Open() error {
    r.lock.Lock()
    defer r.lock.Unlock()

    if r.file != nil {
        return nil
    }

    file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
    if err != nil {
        return fmt.Errorf("opening report file: %w", err)
    }
    r.file = file
    r.logger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
    return nil
}

func (r *FileReporter) Report(event engine.Event) error {
    r.lock.Lock()
    defer r.lock.Unlock()

    if r.file == nil {
        return ErrNotOpen
    }
    r.logger.LogAttrs(context.Background(), slog.LevelError, "Stack diagnosis",
        append(attrs(event), slog.Any("snapshot", event.Snapshot))...)
    return nil
}

func (r *FileReporter) Close() error {
    r.lock.Lock()
    defer r.lock.Unlock()

    if r.file == nil {
        return nil
    }
    err := r.file.Close()
    r.file, r.logger = nil, nil
    if err != nil {
        return fmt.Errorf("closing report file: %w", err)
    }
    return nil
}

var _ io.Closer = (*FileReporter)(nil)

// Multi hands every event to all reporters and joins their errors.
func Multi(reporters ...engine.Reporter) engine.Reporter {
    return engine.ReporterFunc(func(event engine.Event) error {
        var mErr *multierror.Error
        for _, r := range reporters {
            if err := r.Report(event); err != nil {
                mErr = multierror.Append(mErr, err)
            }
        }
        return mErr.ErrorOrNil()
    })
}

// Recorder keeps events in memory.
type Recorder struct {
    lock   sync.Mutex
    events []engine.Event
}

func (r *Recorder) Report(event engine.Event) error {
    r.lock.Lock()
    defer r.lock.Unlock()
    r.events = append(r.events, event)
    return nil
}

func (r *Recorder) Events() []engine.Event {
    r.lock.Lock()
    defer r.lock.Unlock()
    return slices.Clone(r.events)
}

func (r *Recorder) Reset() {
    r.lock.Lock()
    defer r.lock.Unlock()
    r.events = nil
}

func attrs(event engine.Event) []slog.Attr {
    snap := event.Snapshot
    return []slog.Attr{
        slog.String("op", event.Op),
        slog.String("stack", snap.ID),
        slog.String("label", snap.CallSite.String()),
        slog.Any("diagnosis", event.Diagnosis.Names()),
        slog.String("state", snap.State.String()),
        slog.Int("size", snap.Size),
        slog.Int("capacity", snap.Capacity),
        slog.Uint64("storedHash", snap.StoredHash),
        slog.Uint64("computedHash", snap.ComputedHash),
        slog.Time("reportedAt", event.Time),
    }
}
