package registry

import (
    "fmt"
    "strconv"
    "sync"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/types"
    "golang.org/x/exp/constraints"
)

// Instance is a registered stack whose elements are exchanged as text. All
// methods are safe for concurrent use.
type Instance interface {
    Name() string
    Type() types.Type
    Push(value string) error
    Pop() (string, error)
    Verify() engine.Diagnosis
    Snapshot() engine.Snapshot
    InjectFault(region guard.Region, offset int, value byte) error
    Destroy() error
    construct(capacity int) error
}

type instance[T any] struct {
    lock   sync.Mutex
    name   string
    typ    types.Type
    stack  *engine.Stack[T]
    parse  func(string) (T, error)
    format func(T) string
}

func newInstance[T any](name string, typ types.Type, codec engine.Codec[T],
    parse func(string) (T, error), format func(T) string, options []engine.Option) *instance[T] {
    return &instance[T]{
        name:   name,
        typ:    typ,
        stack:  engine.NewStack(codec, options...),
        parse:  parse,
        format: format,
    }
}

func (i *instance[T]) Name() string { return i.name }

func (i *instance[T]) Type() types.Type { return i.typ }

func (i *instance[T]) construct(capacity int) error {
    i.lock.Lock()
    defer i.lock.Unlock()
    return i.stack.Construct(capacity)
}

func (i *instance[T]) Push(value string) error {
    v, err := i.parse(value)
    if err != nil {
        return Error{
            ErrorCode: InvalidValue,
            Message:   fmt.Sprintf("value %q is not a valid %s", value, i.typ),
            Err:       err,
        }
    }

    i.lock.Lock()
    defer i.lock.Unlock()
    return i.stack.Push(v)
}

func (i *instance[T]) Pop() (string, error) {
    i.lock.Lock()
    defer i.lock.Unlock()

    var v T
    if err := i.stack.Pop(&v); err != nil {
        return "", err
    }
    return i.format(v), nil
}

func (i *instance[T]) Verify() engine.Diagnosis {
    i.lock.Lock()
    defer i.lock.Unlock()
    return i.stack.Verify()
}

func (i *instance[T]) Snapshot() engine.Snapshot {
    i.lock.Lock()
    defer i.lock.Unlock()
    return i.stack.Snapshot()
}

func (i *instance[T]) InjectFault(region guard.Region, offset int, value byte) error {
    i.lock.Lock()
    defer i.lock.Unlock()
    return i.stack.InjectFault(region, offset, value)
}

func (i *instance[T]) Destroy() error {
    i.lock.Lock()
    defer i.lock.Unlock()
    return i.stack.Destroy()
}

/* *** Conversions *** */

func parseInt[T constraints.Signed](bits int) func(string) (T, error) {
    return func(s string) (T, error) {
        v, err := strconv.ParseInt(s, 0, bits)
        return T(v), err
    }
}

func formatInt[T constraints.Signed](v T) string {
    return strconv.FormatInt(int64(v), 10)
}

func parseFloat(s string) (float64, error) {
    return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64) string {
    return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseByte(s string) (uint8, error) {
    v, err := strconv.ParseUint(s, 0, 8)
    return uint8(v), err
}

func formatByte(v uint8) string {
    return strconv.FormatUint(uint64(v), 10)
}
