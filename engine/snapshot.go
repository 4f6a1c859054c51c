package engine

import (
    "encoding/hex"
    "fmt"

    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/poison"
)

type Slot struct {
    Index    int    `json:"index"`
    Live     bool   `json:"live"`
    Poisoned bool   `json:"poisoned"`
    Bytes    string `json:"bytes"`
}

// Snapshot is a read-only copy of a stack's state for reporters.
type Snapshot struct {
    ID             string   `json:"id"`
    CallSite       CallSite `json:"callSite"`
    State          State    `json:"state"`
    Size           int      `json:"size"`
    Capacity       int      `json:"capacity"`
    ElemWidth      int      `json:"elemWidth"`
    StoredHash     uint64   `json:"storedHash"`
    ComputedHash   uint64   `json:"computedHash"`
    LeadingCanary  uint64   `json:"leadingCanary"`
    TrailingCanary uint64   `json:"trailingCanary"`
    Slots          []Slot   `json:"slots,omitempty"`
}

// Snapshot copies the stack's fields and, when a buffer is allocated, every
// slot of it. It is safe to call in any state, including on a nil stack.
func (s *Stack[T]) Snapshot() Snapshot {
    if s == nil {
        return Snapshot{}
    }

    snap := Snapshot{
        ID:         s.id,
        CallSite:   s.config.CallSite,
        State:      s.state,
        Size:       s.size,
        Capacity:   s.capacity,
        ElemWidth:  s.codec.Width(),
        StoredHash: s.hash,
    }
    if s.buf == nil || s.buf == guard.Destroyed {
        return snap
    }

    snap.LeadingCanary, snap.TrailingCanary = s.buf.Canaries()
    if s.config.Hash {
        snap.ComputedHash = s.config.Hasher(s.buf.Elements())
    }

    snap.Slots = make([]Slot, 0, s.buf.Capacity())
    for i := 0; i < s.buf.Capacity(); i++ {
        b := s.buf.Slot(i)
        snap.Slots = append(snap.Slots, Slot{
            Index:    i,
            Live:     i < s.size,
            Poisoned: poison.IsFilled(b, s.config.PoisonByte),
            Bytes:    hex.EncodeToString(b),
        })
    }
    return snap
}

// InjectFault overwrites one byte of the given region without updating the
// content hash, simulating a stray write from outside the stack.
func (s *Stack[T]) InjectFault(region guard.Region, offset int, value byte) error {
    const op = "inject"
    if s == nil {
        return Error{Op: op, Diagnosis: NullInstance}
    }
    if s.buf == nil || s.buf == guard.Destroyed {
        return Error{Op: op, Diagnosis: NotConstructed}
    }

    b := s.buf.Region(region)
    if offset < 0 || offset >= len(b) {
        return fmt.Errorf("offset %d out of range for %s region of %d bytes", offset, region, len(b))
    }
    b[offset] = value
    return nil
}
