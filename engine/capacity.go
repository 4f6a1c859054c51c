package engine

import (
    "math"

    "github.com/aleph-zero/guardstack/engine/poison"
)

// minCapacity is the first capacity reached when growing from zero.
const minCapacity = 4

// growTarget saturates at math.MaxInt; the buffer refuses that size.
func growTarget(capacity int) int {
    if capacity > math.MaxInt/2 {
        return math.MaxInt
    }
    return max(minCapacity, 2*capacity)
}

// shrinkTarget reports whether a stack of size elements in capacity slots
// should shrink, and to what. Shrinking keeps one doubling of headroom so a
// push right after a shrink does not grow again.
func shrinkTarget(size, capacity int) (int, bool) {
    if size > 0 && capacity >= 4*size {
        return 2 * size, true
    }
    return capacity, false
}

// resize grows the buffer (grow == true) or shrinks it if the shrink policy
// says so. On allocation failure the previous buffer, capacity and hash are
// kept and AllocationFailed is returned.
func (s *Stack[T]) resize(grow bool) Diagnosis {
    target := growTarget(s.capacity)
    if !grow {
        var ok bool
        if target, ok = shrinkTarget(s.size, s.capacity); !ok {
            return Healthy
        }
    }

    if s.config.Logger != nil {
        s.config.Logger.Debug("resize", "stack", s.id, "grow", grow, "from", s.capacity, "to", target)
    }

    if err := s.buf.Resize(s.config.Allocator, target); err != nil {
        s.logError("resize", err)
        return AllocationFailed
    }

    poison.Fill(s.buf.Slots(s.size, target), s.config.PoisonByte)
    s.capacity = target
    s.rehash()
    return Healthy
}
