package engine

import (
    "errors"
    "fmt"
    "strings"
)

// Error is returned by every failing stack operation. It carries the
// operation name and the complete diagnosis.
type Error struct {
    Op        string
    Diagnosis Diagnosis
}

func (e Error) Error() string {
    msg := strings.Join(e.Diagnosis.Messages(), ", ")
    if e.Op == "" {
        return msg
    }
    return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is matches another Error when all of its flags are present in e and its
// operation, if set, is the same.
func (e Error) Is(target error) bool {
    if other, ok := target.(Error); ok {
        matchOp := other.Op == "" || other.Op == e.Op
        return matchOp && other.Diagnosis != Healthy && e.Diagnosis.Has(other.Diagnosis)
    }
    return false
}

var (
    ErrNullInstance       = Error{Diagnosis: NullInstance}
    ErrNotConstructed     = Error{Diagnosis: NotConstructed}
    ErrAlreadyConstructed = Error{Diagnosis: AlreadyConstructed}
    ErrEmpty              = Error{Diagnosis: Empty}
    ErrAllocationFailed   = Error{Diagnosis: AllocationFailed}
    ErrCanaryMismatch     = Error{Diagnosis: CanaryMismatch}
    ErrHashMismatch       = Error{Diagnosis: HashMismatch}
)

// DiagnosisOf returns the diagnosis carried by err, or Healthy if err is nil
// or not a stack error.
func DiagnosisOf(err error) Diagnosis {
    var e Error
    if errors.As(err, &e) {
        return e.Diagnosis
    }
    return Healthy
}
