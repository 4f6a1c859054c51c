package guard

import "fmt"

// Allocator hands out the raw blocks backing a Buffer. Reallocate must leave
// b untouched when it fails.
type Allocator interface {
    Allocate(size int) ([]byte, error)
    Reallocate(b []byte, size int) ([]byte, error)
    Free(b []byte)
}

// MaxBlockSize bounds a single block. Larger requests fail with an
// AllocationError instead of letting the runtime abort on out of memory.
const MaxBlockSize = 1 << 30

// GoAllocator allocates from the Go heap. Blocks larger than Max bytes are
// refused; a zero Max means MaxBlockSize.
type GoAllocator struct {
    Max int
}

func NewGoAllocator() *GoAllocator { return &GoAllocator{Max: MaxBlockSize} }

func (a *GoAllocator) Allocate(size int) ([]byte, error) {
    limit := a.Max
    if limit <= 0 {
        limit = MaxBlockSize
    }
    if size < 0 || size > limit {
        return nil, AllocationError{Requested: size, Available: limit}
    }
    return make([]byte, size), nil
}

func (a *GoAllocator) Reallocate(b []byte, size int) ([]byte, error) {
    if size == len(b) {
        return b, nil
    }

    buf, err := a.Allocate(size)
    if err != nil {
        return nil, err
    }
    copy(buf, b)
    return buf, nil
}

func (a *GoAllocator) Free(b []byte) {}

// LimitAllocator refuses to keep more than Limit bytes allocated at once.
// A zero Limit means no overall limit; single blocks are still capped at
// MaxBlockSize.
type LimitAllocator struct {
    Limit int
    inUse int
    peak  int
}

func NewLimitAllocator(limit int) *LimitAllocator {
    return &LimitAllocator{Limit: limit}
}

func (a *LimitAllocator) Allocate(size int) ([]byte, error) {
    if size < 0 || size > MaxBlockSize {
        return nil, AllocationError{Requested: size, Available: a.available()}
    }
    if err := a.reserve(size); err != nil {
        return nil, err
    }
    return make([]byte, size), nil
}

func (a *LimitAllocator) Reallocate(b []byte, size int) ([]byte, error) {
    if size == len(b) {
        return b, nil
    }
    if size < 0 || size > MaxBlockSize {
        return nil, AllocationError{Requested: size - len(b), Available: a.available()}
    }

    if err := a.reserve(size - len(b)); err != nil {
        return nil, err
    }
    buf := make([]byte, size)
    copy(buf, b)
    return buf, nil
}

func (a *LimitAllocator) Free(b []byte) {
    a.inUse -= len(b)
    if a.inUse < 0 {
        a.inUse = 0
    }
}

// InUse returns the number of bytes currently allocated.
func (a *LimitAllocator) InUse() int { return a.inUse }

// Peak returns the high-water mark of InUse.
func (a *LimitAllocator) Peak() int { return a.peak }

func (a *LimitAllocator) available() int {
    if a.Limit > 0 {
        return a.Limit - a.inUse
    }
    return MaxBlockSize
}

func (a *LimitAllocator) reserve(delta int) error {
    if a.inUse+delta < 0 {
        return AllocationError{Requested: delta, Available: a.available()}
    }
    if a.Limit > 0 && delta > a.Limit-a.inUse {
        return AllocationError{Requested: delta, Available: a.available()}
    }
    a.inUse += delta
    if a.inUse > a.peak {
        a.peak = a.inUse
    }
    return nil
}

type AllocationError struct {
    Requested int
    Available int
}

func (e AllocationError) Error() string {
    return fmt.Sprintf("tried to allocate %d bytes with only %d left", e.Requested, e.Available)
}

// OverflowError reports a capacity whose size in bytes cannot be represented.
type OverflowError struct {
    Capacity int
    Width    int
}

func (e OverflowError) Error() string {
    return fmt.Sprintf("capacity %d of %d-byte elements overflows the addressable size", e.Capacity, e.Width)
}
