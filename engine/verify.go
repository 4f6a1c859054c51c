package engine

import (
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/poison"
)

// verify composes the lifecycle, bounds, poison, canary and hash checks.
// Only an unconstructed stack short-circuits: its memory layout cannot be
// trusted. Everything else is accumulated so the caller sees every failure.
func (s *Stack[T]) verify() Diagnosis {
    if s.state != Constructed {
        return NotConstructed
    }

    var d Diagnosis
    if s.buf == guard.Destroyed {
        d |= ActivePoison
    }

    if s.size < 0 {
        d |= SizeInvalid
    }
    if s.capacity < 0 {
        d |= CapacityInvalid
    }
    if s.size > s.capacity {
        d |= SizeInvalid | CapacityInvalid
    }

    allocated := s.buf != nil && s.buf != guard.Destroyed
    if s.capacity > 0 && s.buf == nil {
        d |= CapacityInvalid
    }
    if allocated && s.buf.Capacity() != s.capacity {
        d |= CapacityInvalid
    }

    // the slot scans need size and capacity to describe the real buffer
    consistent := allocated && s.size >= 0 && s.size <= s.capacity && s.buf.Capacity() == s.capacity
    if s.config.Poison && s.capacity > 0 && consistent {
        if s.liveHasPoison() {
            d |= ActivePoison
        }
        if !poison.IsFilled(s.buf.Slots(s.size, s.capacity), s.config.PoisonByte) {
            d |= NonPoisonInFreeRegion
        }
    }

    if s.config.Canary && allocated && !s.buf.CheckCanaries() {
        d |= CanaryMismatch
    }

    if s.config.Hash && allocated && s.config.Hasher(s.buf.Elements()) != s.hash {
        d |= HashMismatch
    }
    return d
}

func (s *Stack[T]) liveHasPoison() bool {
    p := s.config.PoisonByte
    if s.config.PoisonMode == PoisonSlotScan {
        for i := 0; i < s.size; i++ {
            if poison.IsFilled(s.buf.Slot(i), p) {
                return true
            }
        }
        return false
    }
    return poison.Contains(s.buf.Slots(0, s.size), p)
}
