package guard

import (
    "encoding/binary"
    "fmt"
    "math"
    "strings"
)

// Width is the size in bytes of each canary word.
const Width = 8

const (
    LeadingCanary  uint64 = 0xBADC0FFEE0DDF00D
    TrailingCanary uint64 = 0xDEADBEEFCAFEBABE
)

// Region names one of the three logical parts of a Buffer.
type Region int

const (
    Leading Region = iota
    Elements
    Trailing
)

func (r Region) String() string {
    names := [...]string{"LEADING", "ELEMENTS", "TRAILING"}
    if r < Leading || r > Trailing {
        return fmt.Sprintf("Region(%d)", r)
    }
    return names[r]
}

func ParseRegion(s string) (Region, error) {
    switch strings.ToUpper(s) {
    case "LEADING":
        return Leading, nil
    case "ELEMENTS":
        return Elements, nil
    case "TRAILING":
        return Trailing, nil
    default:
        return -1, fmt.Errorf("invalid region: %s", s)
    }
}

// Destroyed marks a stack whose buffer has been released. It is distinct
// from nil and from every Buffer returned by New.
var Destroyed = &Buffer{}

// Buffer is a single block laid out as
//
//     [leading canary][capacity * width element bytes][trailing canary]
//
// When canaries are disabled both guard regions are empty.
type Buffer struct {
    raw      []byte
    width    int
    capacity int
    guard    int
}

// New allocates a block for capacity elements of width bytes and, if
// canaries is set, writes both guard words. The element region is left as
// returned by the allocator.
func New(alloc Allocator, capacity, width int, canaries bool) (*Buffer, error) {
    if capacity < 0 || width <= 0 {
        return nil, fmt.Errorf("invalid buffer geometry: capacity %d, width %d", capacity, width)
    }

    b := &Buffer{width: width, capacity: capacity}
    if canaries {
        b.guard = Width
    }

    size, err := b.size(capacity)
    if err != nil {
        return nil, err
    }
    raw, err := alloc.Allocate(size)
    if err != nil {
        return nil, err
    }
    b.raw = raw
    b.WriteCanaries()
    return b, nil
}

// Resize reallocates the block for a new capacity and rewrites the trailing
// canary at its new offset. Element bytes past the old capacity are whatever
// the allocator returned (or the old trailing canary); callers must poison
// them. On failure the buffer is unchanged.
func (b *Buffer) Resize(alloc Allocator, capacity int) error {
    if capacity < 0 {
        return fmt.Errorf("invalid capacity %d", capacity)
    }

    size, err := b.size(capacity)
    if err != nil {
        return err
    }
    raw, err := alloc.Reallocate(b.raw, size)
    if err != nil {
        return err
    }
    b.raw = raw
    b.capacity = capacity
    if b.guard > 0 {
        binary.LittleEndian.PutUint64(b.Trailing(), TrailingCanary)
    }
    return nil
}

// Release returns the block to alloc. The buffer must not be used afterwards.
func (b *Buffer) Release(alloc Allocator) {
    alloc.Free(b.raw)
    b.raw = nil
    b.capacity = 0
}

// size returns the block size for capacity elements, refusing capacities
// whose byte size does not fit in an int.
func (b *Buffer) size(capacity int) (int, error) {
    if capacity > (math.MaxInt-2*b.guard)/b.width {
        return 0, OverflowError{Capacity: capacity, Width: b.width}
    }
    return capacity*b.width + 2*b.guard, nil
}

func (b *Buffer) Capacity() int { return b.capacity }

func (b *Buffer) ElemWidth() int { return b.width }

func (b *Buffer) Guarded() bool { return b.guard > 0 }

func (b *Buffer) Leading() []byte {
    return b.raw[:b.guard]
}

func (b *Buffer) Elements() []byte {
    return b.raw[b.guard : b.guard+b.capacity*b.width]
}

func (b *Buffer) Trailing() []byte {
    return b.raw[b.guard+b.capacity*b.width:]
}

// Slot returns the bytes of element i.
func (b *Buffer) Slot(i int) []byte {
    return b.Slots(i, i+1)
}

// Slots returns the bytes of elements [from, to).
func (b *Buffer) Slots(from, to int) []byte {
    return b.Elements()[from*b.width : to*b.width]
}

func (b *Buffer) Region(r Region) []byte {
    switch r {
    case Leading:
        return b.Leading()
    case Trailing:
        return b.Trailing()
    default:
        return b.Elements()
    }
}

func (b *Buffer) WriteCanaries() {
    if b.guard == 0 {
        return
    }
    binary.LittleEndian.PutUint64(b.Leading(), LeadingCanary)
    binary.LittleEndian.PutUint64(b.Trailing(), TrailingCanary)
}

// Canaries returns the words currently stored in the guard regions, or zeros
// for an unguarded buffer.
func (b *Buffer) Canaries() (leading, trailing uint64) {
    if b.guard == 0 {
        return 0, 0
    }
    return binary.LittleEndian.Uint64(b.Leading()), binary.LittleEndian.Uint64(b.Trailing())
}

// CheckCanaries reports whether both guard words are intact. Unguarded
// buffers always pass.
func (b *Buffer) CheckCanaries() bool {
    if b.guard == 0 {
        return true
    }
    leading, trailing := b.Canaries()
    return leading == LeadingCanary && trailing == TrailingCanary
}
