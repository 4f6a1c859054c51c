package engine

import (
    "encoding/json"
    "fmt"
    "time"

    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/poison"
    "github.com/google/uuid"
)

// State is the lifecycle position of a Stack.
type State int

const (
    Uninitialized State = iota
    Constructed
    Destroyed
)

func (s State) String() string {
    names := [...]string{"UNINITIALIZED", "CONSTRUCTED", "DESTROYED"}
    if s < Uninitialized || s > Destroyed {
        return fmt.Sprintf("State(%d)", s)
    }
    return names[s]
}

func (s State) MarshalJSON() ([]byte, error) {
    return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
    var name string
    if err := json.Unmarshal(data, &name); err != nil {
        return err
    }
    for state := Uninitialized; state <= Destroyed; state++ {
        if state.String() == name {
            *s = state
            return nil
        }
    }
    return fmt.Errorf("invalid state: %s", name)
}

// Values held by a destroyed stack. No live stack can have them.
const (
    poisonSize     = -1
    poisonCapacity = -1
)

// Stack is a LIFO container of fixed-width elements that verifies its own
// integrity before and after every operation. A Stack is not safe for
// concurrent use.
type Stack[T any] struct {
    codec    Codec[T]
    config   *Config
    id       string
    buf      *guard.Buffer
    size     int
    capacity int
    hash     uint64
    state    State
}

// NewStack returns an unconstructed stack; call Construct before use.
func NewStack[T any](codec Codec[T], options ...Option) *Stack[T] {
    return &Stack[T]{
        codec:  codec,
        config: NewConfig(options...),
        id:     uuid.NewString(),
    }
}

// Construct allocates room for capacity elements (negative values are
// treated as zero), poisons it and marks the stack constructed. A stack may
// be constructed again only after Destroy.
func (s *Stack[T]) Construct(capacity int) error {
    const op = "construct"
    if s == nil {
        return Error{Op: op, Diagnosis: NullInstance}
    }
    s.trace(op)

    if s.state == Constructed {
        return s.fail(op, AlreadyConstructed)
    }

    if capacity < 0 {
        capacity = 0
    }

    buf, err := guard.New(s.config.Allocator, capacity, s.codec.Width(), s.config.Canary)
    if err != nil {
        if s.state == Uninitialized {
            s.buf, s.size, s.capacity = nil, 0, 0
        }
        s.logError(op, err)
        return s.fail(op, AllocationFailed)
    }

    poison.Fill(buf.Elements(), s.config.PoisonByte)
    s.buf = buf
    s.size = 0
    s.capacity = capacity
    s.state = Constructed
    s.rehash()
    return s.check(op)
}

// Push appends v, growing the buffer first when it is full.
func (s *Stack[T]) Push(v T) error {
    const op = "push"
    if s == nil {
        return Error{Op: op, Diagnosis: NullInstance}
    }
    s.trace(op)

    if d := s.verify(); !d.OK() {
        return s.fail(op, d)
    }

    if s.size == s.capacity {
        if d := s.resize(true); !d.OK() {
            return s.fail(op, d)
        }
    }

    s.codec.Encode(s.buf.Slot(s.size), v)
    s.size++
    s.rehash()
    return s.check(op)
}

// Pop removes the top element and, if out is not nil, stores it there. An
// empty stack yields an Error with the Empty flag and is left untouched.
// Failing to shrink afterwards does not fail the Pop.
func (s *Stack[T]) Pop(out *T) error {
    const op = "pop"
    if s == nil {
        return Error{Op: op, Diagnosis: NullInstance}
    }
    s.trace(op)

    if d := s.verify(); !d.OK() {
        return s.fail(op, d)
    }

    if s.size == 0 {
        return s.fail(op, Empty)
    }

    s.size--
    slot := s.buf.Slot(s.size)
    if out != nil {
        *out = s.codec.Decode(slot)
    }
    poison.Fill(slot, s.config.PoisonByte)
    s.rehash()

    // a failed shrink keeps the larger buffer, which is still consistent
    s.resize(false)
    return s.check(op)
}

// Destroy releases the buffer and poisons the stack's fields.
func (s *Stack[T]) Destroy() error {
    const op = "destroy"
    if s == nil {
        return Error{Op: op, Diagnosis: NullInstance}
    }
    s.trace(op)

    if d := s.verify(); !d.OK() {
        return s.fail(op, d)
    }

    s.buf.Release(s.config.Allocator)
    s.buf = guard.Destroyed
    s.size = poisonSize
    s.capacity = poisonCapacity
    s.hash = 0
    s.state = Destroyed
    return nil
}

// Verify runs every enabled check and returns the resulting diagnosis. It
// never modifies the stack.
func (s *Stack[T]) Verify() Diagnosis {
    if s == nil {
        return NullInstance
    }
    return s.verify()
}

func (s *Stack[T]) ID() string { return s.id }

func (s *Stack[T]) Len() int { return s.size }

func (s *Stack[T]) Cap() int { return s.capacity }

func (s *Stack[T]) State() State { return s.state }

func (s *Stack[T]) CallSite() CallSite { return s.config.CallSite }

func (s *Stack[T]) rehash() {
    if s.config.Hash {
        s.hash = s.config.Hasher(s.buf.Elements())
    }
}

// check runs the postcondition verification of op.
func (s *Stack[T]) check(op string) error {
    if d := s.verify(); !d.OK() {
        return s.fail(op, d)
    }
    return nil
}

func (s *Stack[T]) fail(op string, d Diagnosis) error {
    s.report(op, d)
    return Error{Op: op, Diagnosis: d}
}

func (s *Stack[T]) report(op string, d Diagnosis) {
    if s.config.Reporter == nil {
        return
    }

    event := Event{Op: op, Diagnosis: d, Snapshot: s.Snapshot(), Time: time.Now()}
    if err := s.config.Reporter.Report(event); err != nil && s.config.Logger != nil {
        s.config.Logger.Warn("Error reporting diagnosis", "stack", s.id, "op", op, "error", err)
    }
}

func (s *Stack[T]) trace(op string) {
    if s.config.Logger == nil {
        return
    }
    s.config.Logger.Debug(op, "stack", s.id, "label", s.config.CallSite.Label,
        "state", s.state, "size", s.size, "capacity", s.capacity)
}

func (s *Stack[T]) logError(op string, err error) {
    if s.config.Logger == nil {
        return
    }
    s.config.Logger.Error("Allocation failed", "stack", s.id, "op", op, "error", err)
}
