package engine

import (
    "encoding/json"
    "fmt"
    "strings"
)

// Diagnosis is the set of failures found by one verification pass. Several
// flags may be set at once; the zero value means the stack is healthy.
type Diagnosis uint16

const (
    NullInstance Diagnosis = 1 << iota
    NotConstructed
    AlreadyConstructed
    Empty
    CapacityInvalid
    SizeInvalid
    ActivePoison
    NonPoisonInFreeRegion
    AllocationFailed
    CanaryMismatch
    HashMismatch
)

const Healthy Diagnosis = 0

// corruption holds the flags that mean the stored structure itself is damaged.
const corruption = CapacityInvalid | SizeInvalid | ActivePoison | NonPoisonInFreeRegion | CanaryMismatch | HashMismatch

var flagInfo = [...]struct {
    name    string
    message string
}{
    {"NULL_INSTANCE", "stack instance is nil"},
    {"NOT_CONSTRUCTED", "stack is not constructed"},
    {"ALREADY_CONSTRUCTED", "stack is already constructed"},
    {"EMPTY", "stack is empty"},
    {"CAPACITY_INVALID", "capacity invalid"},
    {"SIZE_INVALID", "size invalid"},
    {"ACTIVE_POISON", "active elements are poisoned"},
    {"NON_POISON_IN_FREE_REGION", "non active elements are not poisoned"},
    {"ALLOCATION_FAILED", "memory limit exceeded"},
    {"CANARY_MISMATCH", "canary overwritten"},
    {"HASH_MISMATCH", "content hash mismatch"},
}

// Has reports whether every flag in flags is set.
func (d Diagnosis) Has(flags Diagnosis) bool {
    return d&flags == flags
}

// Any reports whether at least one flag in flags is set.
func (d Diagnosis) Any(flags Diagnosis) bool {
    return d&flags != 0
}

func (d Diagnosis) OK() bool {
    return d == Healthy
}

// Corrupted reports whether any structural corruption flag is set. Empty and
// the lifecycle flags are not corruption.
func (d Diagnosis) Corrupted() bool {
    return d.Any(corruption)
}

// Flags splits d into its single-flag components, lowest bit first.
func (d Diagnosis) Flags() []Diagnosis {
    var flags []Diagnosis
    for i := range flagInfo {
        if f := Diagnosis(1 << i); d.Has(f) {
            flags = append(flags, f)
        }
    }
    return flags
}

func (d Diagnosis) Names() []string {
    names := make([]string, 0, len(flagInfo))
    for i, info := range flagInfo {
        if d.Has(Diagnosis(1 << i)) {
            names = append(names, info.name)
        }
    }
    return names
}

func (d Diagnosis) Messages() []string {
    messages := make([]string, 0, len(flagInfo))
    for i, info := range flagInfo {
        if d.Has(Diagnosis(1 << i)) {
            messages = append(messages, info.message)
        }
    }
    return messages
}

func (d Diagnosis) String() string {
    if d.OK() {
        return "OK"
    }
    names := d.Names()
    if unknown := d &^ (1<<len(flagInfo) - 1); unknown != 0 {
        names = append(names, fmt.Sprintf("Diagnosis(%#x)", uint16(unknown)))
    }
    return strings.Join(names, "|")
}

// ParseFlag returns the flag with the given name.
func ParseFlag(name string) (Diagnosis, error) {
    for i, info := range flagInfo {
        if strings.EqualFold(info.name, name) {
            return Diagnosis(1 << i), nil
        }
    }
    return 0, fmt.Errorf("invalid diagnosis flag: %s", name)
}

func (d Diagnosis) MarshalJSON() ([]byte, error) {
    return json.Marshal(d.Names())
}

func (d *Diagnosis) UnmarshalJSON(data []byte) error {
    var names []string
    if err := json.Unmarshal(data, &names); err != nil {
        return err
    }

    var parsed Diagnosis
    for _, name := range names {
        flag, err := ParseFlag(name)
        if err != nil {
            return err
        }
        parsed |= flag
    }
    *d = parsed
    return nil
}
