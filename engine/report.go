package engine

import (
    "fmt"
    "time"
)

// CallSite describes where a stack was declared. It is used for reporting
// only and never affects verification.
type CallSite struct {
    File     string `json:"file,omitempty"`
    Function string `json:"function,omitempty"`
    Line     int    `json:"line,omitempty"`
    Label    string `json:"label,omitempty"`
}

func (c CallSite) String() string {
    if c.File == "" && c.Function == "" {
        return c.Label
    }
    return fmt.Sprintf("%s (%s:%d %s)", c.Label, c.File, c.Line, c.Function)
}

// Event is handed to a Reporter whenever an operation ends with a non-empty
// diagnosis.
type Event struct {
    Op        string
    Diagnosis Diagnosis
    Snapshot  Snapshot
    Time      time.Time
}

// Reporter renders diagnoses to some sink. The engine never formats text
// itself.
type Reporter interface {
    Report(event Event) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(event Event) error

func (f ReporterFunc) Report(event Event) error {
    return f(event)
}
