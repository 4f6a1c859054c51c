package types

import (
    "encoding/json"
    "fmt"
    "strings"
)

// Type names the element type of a stack created by name rather than by Go
// type parameter.
type Type int

const (
    INTEGER Type = iota
    INT32
    FLOAT
    BYTE
)

func (t Type) String() string {
    names := [...]string{"INTEGER", "INT32", "FLOAT", "BYTE"}
    if t < INTEGER || t > BYTE {
        return fmt.Sprintf("Type(%d)", t)
    }
    return names[t]
}

func (t Type) GoString() string {
    return "types." + t.String()
}

// Width returns the element size in bytes.
func (t Type) Width() int {
    switch t {
    case INTEGER, FLOAT:
        return 8
    case INT32:
        return 4
    case BYTE:
        return 1
    default:
        return 0
    }
}

func New(t string) (Type, error) {
    switch strings.ToUpper(t) {
    case "INTEGER":
        return INTEGER, nil
    case "INT32":
        return INT32, nil
    case "FLOAT":
        return FLOAT, nil
    case "BYTE":
        return BYTE, nil
    default:
        return -1, fmt.Errorf("invalid type: %s", t)
    }
}

func (t Type) MarshalJSON() ([]byte, error) {
    return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
    var s string
    if err := json.Unmarshal(data, &s); err != nil {
        return err
    }
    parsed, err := New(s)
    if err != nil {
        return err
    }
    *t = parsed
    return nil
}
