package engine

import (
    "errors"
    "math"
    "testing"

    "github.com/aleph-zero/guardstack/engine/checksum"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/poison"
    "github.com/stretchr/testify/require"
)

func newStack(t *testing.T, capacity int, options ...Option) *Stack[int64] {
    t.Helper()
    s := NewStack[int64](NumberCodec[int64](), options...)
    require.NoError(t, s.Construct(capacity))
    return s
}

func TestStack_PushPopScenario(t *testing.T) {
    s := newStack(t, 0)

    require.NoError(t, s.Push(5))
    require.NoError(t, s.Push(7))

    var v int64
    require.NoError(t, s.Pop(&v))
    require.Equal(t, int64(7), v)
    require.Equal(t, 1, s.Len())
    require.Equal(t, 4, s.Cap())
    require.True(t, s.Verify().OK())
}

func TestStack_PopEmpty(t *testing.T) {
    s := newStack(t, 4)

    for i := 0; i < 4; i++ {
        err := s.Pop(nil)
        require.Error(t, err)
        require.True(t, errors.Is(err, ErrEmpty))
        require.False(t, DiagnosisOf(err).Corrupted())
        require.Equal(t, 0, s.Len())
        require.Equal(t, 4, s.Cap())
    }
    require.True(t, s.Verify().OK())
}

func TestStack_UseAfterDestroy(t *testing.T) {
    s := newStack(t, 2)
    require.NoError(t, s.Push(1))
    require.NoError(t, s.Destroy())

    require.Equal(t, Destroyed, s.State())
    require.Equal(t, -1, s.Len())
    require.Equal(t, -1, s.Cap())

    err := s.Push(2)
    require.True(t, errors.Is(err, ErrNotConstructed))
    require.True(t, errors.Is(s.Pop(nil), ErrNotConstructed))
    require.True(t, errors.Is(s.Destroy(), ErrNotConstructed))
    require.Equal(t, NotConstructed, s.Verify())

    // a destroyed stack may be constructed again
    require.NoError(t, s.Construct(1))
    require.NoError(t, s.Push(3))
    require.Equal(t, 1, s.Len())
}

func TestStack_Lifecycle(t *testing.T) {
    var nilStack *Stack[int64]
    require.Equal(t, NullInstance, nilStack.Verify())
    require.True(t, errors.Is(nilStack.Push(1), ErrNullInstance))
    require.True(t, errors.Is(nilStack.Pop(nil), ErrNullInstance))
    require.True(t, errors.Is(nilStack.Construct(1), ErrNullInstance))
    require.True(t, errors.Is(nilStack.Destroy(), ErrNullInstance))
    require.Equal(t, Snapshot{}, nilStack.Snapshot())

    s := NewStack[int64](NumberCodec[int64]())
    require.Equal(t, Uninitialized, s.State())
    require.Equal(t, NotConstructed, s.Verify())
    require.True(t, errors.Is(s.Push(1), ErrNotConstructed))

    require.NoError(t, s.Construct(-5))
    require.Equal(t, 0, s.Cap())
    require.NoError(t, s.Push(1))

    err := s.Construct(8)
    require.True(t, errors.Is(err, ErrAlreadyConstructed))
    require.True(t, errors.Is(err, Error{Op: "construct", Diagnosis: AlreadyConstructed}))
    require.False(t, errors.Is(err, Error{Op: "push", Diagnosis: AlreadyConstructed}))
    require.Equal(t, 1, s.Len())
    require.Equal(t, 4, s.Cap())
}

func TestStack_GrowthLaw(t *testing.T) {
    s := newStack(t, 0)

    var capacities []int
    for i := 0; i < 33; i++ {
        before := s.Cap()
        require.NoError(t, s.Push(int64(i)))
        if s.Cap() != before {
            require.Equal(t, before, s.Len()-1, "grew before the buffer was full")
            capacities = append(capacities, s.Cap())
        }
    }
    require.Equal(t, []int{4, 8, 16, 32, 64}, capacities)
}

func TestStack_ShrinkLaw(t *testing.T) {
    s := newStack(t, 0)
    for i := 0; i < 16; i++ {
        require.NoError(t, s.Push(int64(i)))
    }
    require.Equal(t, 16, s.Cap())

    expected := map[int]int{ // size after pop -> capacity after pop
        15: 16, 5: 16, 4: 8, 3: 8, 2: 4, 1: 2, 0: 2,
    }
    for s.Len() > 0 {
        var v int64
        require.NoError(t, s.Pop(&v))
        require.Equal(t, int64(s.Len()), v)
        if c, ok := expected[s.Len()]; ok {
            require.Equal(t, c, s.Cap(), "size %d", s.Len())
        }
        require.True(t, s.Verify().OK())
    }
}

func TestShrinkTarget(t *testing.T) {
    tests := []struct {
        size, capacity int
        target         int
        ok             bool
    }{
        {0, 8, 8, false},
        {1, 4, 2, true},
        {1, 3, 3, false},
        {2, 8, 4, true},
        {3, 8, 8, false},
        {4, 16, 8, true},
    }
    for _, tt := range tests {
        target, ok := shrinkTarget(tt.size, tt.capacity)
        require.Equal(t, tt.ok, ok, "size %d capacity %d", tt.size, tt.capacity)
        require.Equal(t, tt.target, target, "size %d capacity %d", tt.size, tt.capacity)
    }

    require.Equal(t, 4, growTarget(0))
    require.Equal(t, 4, growTarget(1))
    require.Equal(t, 10, growTarget(5))
    require.Equal(t, math.MaxInt, growTarget(math.MaxInt/2+1))
}

func TestStack_RoundTripRepoisons(t *testing.T) {
    s := newStack(t, 2)
    require.NoError(t, s.Push(42))

    var v int64
    require.NoError(t, s.Pop(&v))
    require.Equal(t, int64(42), v)

    snap := s.Snapshot()
    require.Len(t, snap.Slots, 2)
    for _, slot := range snap.Slots {
        require.False(t, slot.Live)
        require.True(t, slot.Poisoned)
    }
    require.True(t, s.Verify().OK())
    require.Equal(t, snap.StoredHash, snap.ComputedHash)
}

func TestStack_SizeInvariant(t *testing.T) {
    s := newStack(t, 0)
    ops := "pppoppooooppppppooopppppppppoooooooooooooooo"
    pushes, pops := 0, 0
    for _, op := range ops {
        if op == 'p' {
            require.NoError(t, s.Push(int64(pushes)))
            pushes++
            continue
        }
        if err := s.Pop(nil); err == nil {
            pops++
        } else {
            require.True(t, errors.Is(err, ErrEmpty))
        }
        require.Equal(t, pushes-pops, s.Len())
        require.LessOrEqual(t, s.Len(), s.Cap())
    }
}

func TestStack_CorruptionInjection(t *testing.T) {
    tests := []struct {
        name     string
        options  []Option
        region   guard.Region
        offset   int
        value    byte
        expected Diagnosis
    }{
        {"trailing canary", nil, guard.Trailing, 0, 0, CanaryMismatch},
        {"leading canary", nil, guard.Leading, 7, 0, CanaryMismatch},
        {"live slot", nil, guard.Elements, 1, 0x11, HashMismatch},
        {"live slot poisoned", nil, guard.Elements, 0, poison.DefaultByte, ActivePoison | HashMismatch},
        {"free slot", nil, guard.Elements, 8, 0, NonPoisonInFreeRegion | HashMismatch},
        {"free slot without hash", []Option{WithHash(false)}, guard.Elements, 8, 0, NonPoisonInFreeRegion},
        {"free slot without poison scan", []Option{WithPoison(false)}, guard.Elements, 8, 0, HashMismatch},
        {"trailing canary with fnv", []Option{WithHasher(checksum.FNV)}, guard.Trailing, 0, 0, CanaryMismatch},
        {"live slot with fnv", []Option{WithHasher(checksum.FNV)}, guard.Elements, 2, 0x22, HashMismatch},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            s := newStack(t, 4, tt.options...)
            require.NoError(t, s.Push(5))

            require.NoError(t, s.InjectFault(tt.region, tt.offset, tt.value))
            require.Equal(t, tt.expected, s.Verify())
            require.Equal(t, tt.expected, s.Verify(), "verify must be idempotent")

            err := s.Push(6)
            require.Equal(t, tt.expected, DiagnosisOf(err))
            require.Equal(t, 1, s.Len())
        })
    }
}

func TestStack_DisabledCanaries(t *testing.T) {
    s := newStack(t, 4, WithCanary(false))
    require.NoError(t, s.Push(5))

    snap := s.Snapshot()
    require.Zero(t, snap.LeadingCanary)
    require.Zero(t, snap.TrailingCanary)
    require.Error(t, s.InjectFault(guard.Trailing, 0, 0))
    require.True(t, s.Verify().OK())
}

func TestStack_InjectFaultBounds(t *testing.T) {
    s := newStack(t, 1)
    require.Error(t, s.InjectFault(guard.Elements, 8, 0))
    require.Error(t, s.InjectFault(guard.Elements, -1, 0))

    require.NoError(t, s.Destroy())
    require.True(t, errors.Is(s.InjectFault(guard.Elements, 0, 0), ErrNotConstructed))
}

func TestStack_FieldCorruption(t *testing.T) {
    tests := []struct {
        name     string
        corrupt  func(s *Stack[int64])
        expected Diagnosis
    }{
        {"size above capacity", func(s *Stack[int64]) { s.size = s.capacity + 1 }, SizeInvalid | CapacityInvalid},
        {"negative size", func(s *Stack[int64]) { s.size = -1 }, SizeInvalid},
        {"negative capacity", func(s *Stack[int64]) { s.capacity = -1 }, SizeInvalid | CapacityInvalid},
        {"nil buffer", func(s *Stack[int64]) { s.buf = nil }, CapacityInvalid},
        {"destroyed buffer", func(s *Stack[int64]) { s.buf = guard.Destroyed }, ActivePoison},
        {"stale hash", func(s *Stack[int64]) { s.hash++ }, HashMismatch},
        {"lost construction", func(s *Stack[int64]) { s.state = Uninitialized }, NotConstructed},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            s := newStack(t, 4)
            tt.corrupt(s)
            require.Equal(t, tt.expected, s.Verify())
        })
    }
}

func TestStack_AllocationFailure(t *testing.T) {
    t.Run("construct", func(t *testing.T) {
        s := NewStack[int64](NumberCodec[int64](), WithAllocator(guard.NewLimitAllocator(8)))
        err := s.Construct(4)
        require.True(t, errors.Is(err, ErrAllocationFailed))
        require.Equal(t, Uninitialized, s.State())
        require.Equal(t, NotConstructed, s.Verify())
    })

    t.Run("grow keeps old buffer", func(t *testing.T) {
        alloc := guard.NewLimitAllocator(48)
        s := newStack(t, 4, WithAllocator(alloc))
        for i := 1; i <= 4; i++ {
            require.NoError(t, s.Push(int64(i)))
        }

        err := s.Push(5)
        require.True(t, errors.Is(err, ErrAllocationFailed))
        require.Equal(t, 4, s.Len())
        require.Equal(t, 4, s.Cap())
        require.True(t, s.Verify().OK())

        var v int64
        require.NoError(t, s.Pop(&v))
        require.Equal(t, int64(4), v)
        require.NoError(t, s.Destroy())
        require.Equal(t, 0, alloc.InUse())
    })

    t.Run("capacity overflows byte size", func(t *testing.T) {
        s := NewStack[int64](NumberCodec[int64]())
        err := s.Construct(1 << 61)
        require.True(t, errors.Is(err, ErrAllocationFailed))
        require.Equal(t, Uninitialized, s.State())
        require.Equal(t, 0, s.Cap())
        require.Equal(t, NotConstructed, s.Verify())

        err = s.Push(5)
        require.True(t, errors.Is(err, ErrNotConstructed))

        require.NoError(t, s.Construct(0))
        require.NoError(t, s.Push(5))
        require.True(t, s.Verify().OK())
    })

    t.Run("capacity above block limit", func(t *testing.T) {
        s := NewStack[int64](NumberCodec[int64]())
        err := s.Construct(1 << 40)
        require.True(t, errors.Is(err, ErrAllocationFailed))
        require.Equal(t, Uninitialized, s.State())
    })

    t.Run("growth past addressable size", func(t *testing.T) {
        s := NewStack[[]byte](BytesCodec(math.MaxInt / 2))
        require.NoError(t, s.Construct(0))

        err := s.Push([]byte{1})
        require.True(t, errors.Is(err, ErrAllocationFailed))
        require.Equal(t, 0, s.Len())
        require.Equal(t, 0, s.Cap())
        require.True(t, s.Verify().OK())
    })

    t.Run("failed construct keeps destroyed state", func(t *testing.T) {
        s := NewStack[int64](NumberCodec[int64](), WithAllocator(guard.NewLimitAllocator(48)))
        require.NoError(t, s.Construct(4))
        require.NoError(t, s.Destroy())

        err := s.Construct(8)
        require.True(t, errors.Is(err, ErrAllocationFailed))
        require.Equal(t, Destroyed, s.State())
        require.Equal(t, poisonSize, s.Len())
        require.Equal(t, poisonCapacity, s.Cap())
        require.True(t, errors.Is(s.Push(1), ErrNotConstructed))
    })

    t.Run("failed shrink still pops", func(t *testing.T) {
        alloc := &shrinkFailAllocator{GoAllocator: guard.NewGoAllocator()}
        s := newStack(t, 16, WithAllocator(alloc))
        for i := 1; i <= 4; i++ {
            require.NoError(t, s.Push(int64(i)))
        }

        alloc.fail = true
        var v int64
        require.NoError(t, s.Pop(&v))
        require.Equal(t, int64(4), v)
        require.Equal(t, 3, s.Len())
        require.Equal(t, 16, s.Cap())
        require.True(t, s.Verify().OK())

        alloc.fail = false
        require.NoError(t, s.Pop(&v))
        require.Equal(t, int64(3), v)
        require.Equal(t, 4, s.Cap())
    })
}

// shrinkFailAllocator refuses to reallocate to a smaller block while fail is
// set.
type shrinkFailAllocator struct {
    *guard.GoAllocator
    fail bool
}

func (a *shrinkFailAllocator) Reallocate(b []byte, size int) ([]byte, error) {
    if a.fail && size < len(b) {
        return nil, guard.AllocationError{Requested: size - len(b)}
    }
    return a.GoAllocator.Reallocate(b, size)
}

func TestStack_PoisonModes(t *testing.T) {
    value := int64(poison.DefaultByte) // low byte equals the poison byte

    byteScan := newStack(t, 2)
    err := byteScan.Push(value)
    require.Equal(t, ActivePoison, DiagnosisOf(err))

    slotScan := newStack(t, 2, WithPoisonMode(PoisonSlotScan))
    require.NoError(t, slotScan.Push(value))

    // a one byte element equal to the poison byte is indistinguishable from garbage
    small := NewStack[uint8](NumberCodec[uint8](), WithPoisonMode(PoisonSlotScan))
    require.NoError(t, small.Construct(2))
    require.Equal(t, ActivePoison, DiagnosisOf(small.Push(poison.DefaultByte)))
}

func TestStack_Reporter(t *testing.T) {
    var events []Event
    reporter := ReporterFunc(func(e Event) error {
        events = append(events, e)
        return nil
    })

    s := newStack(t, 1, WithReporter(reporter), WithCallSite(CallSite{Label: "stk", File: "main.go", Line: 10}))
    require.Empty(t, events)

    require.Error(t, s.Pop(nil))
    require.Len(t, events, 1)
    require.Equal(t, "pop", events[0].Op)
    require.Equal(t, Empty, events[0].Diagnosis)
    require.Equal(t, "stk", events[0].Snapshot.CallSite.Label)
    require.Equal(t, s.ID(), events[0].Snapshot.ID)

    require.NoError(t, s.InjectFault(guard.Trailing, 0, 0))
    s.Verify()
    require.Len(t, events, 1, "verify does not report")

    require.Error(t, s.Push(1))
    require.Len(t, events, 2)
    require.Equal(t, CanaryMismatch, events[1].Diagnosis)
}

func TestStack_Codecs(t *testing.T) {
    f := NewStack[float64](NumberCodec[float64]())
    require.NoError(t, f.Construct(0))
    require.NoError(t, f.Push(3.25))
    var fv float64
    require.NoError(t, f.Pop(&fv))
    require.Equal(t, 3.25, fv)

    b := NewStack[[]byte](BytesCodec(4))
    require.NoError(t, b.Construct(1))
    require.NoError(t, b.Push([]byte("ab")))
    var bv []byte
    require.NoError(t, b.Pop(&bv))
    require.Equal(t, []byte{'a', 'b', 0, 0}, bv)

    i32 := NewStack[int32](NumberCodec[int32]())
    require.NoError(t, i32.Construct(0))
    require.NoError(t, i32.Push(-9))
    require.Equal(t, 4, i32.Snapshot().ElemWidth)
}
