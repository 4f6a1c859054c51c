package engine

import (
    "encoding/binary"

    "golang.org/x/exp/constraints"
)

// Codec converts elements to and from their fixed-width byte form. Encode
// and Decode are only ever given slices of exactly Width bytes.
type Codec[T any] interface {
    Width() int
    Encode(dst []byte, v T)
    Decode(src []byte) T
}

// Number is the set of element types with a fixed binary size.
type Number interface {
    constraints.Float | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type numberCodec[T Number] struct {
    width int
}

// NumberCodec stores numbers little-endian.
func NumberCodec[T Number]() Codec[T] {
    var zero T
    return numberCodec[T]{width: binary.Size(zero)}
}

func (c numberCodec[T]) Width() int { return c.width }

func (c numberCodec[T]) Encode(dst []byte, v T) {
    if _, err := binary.Encode(dst, binary.LittleEndian, v); err != nil {
        panic(err)
    }
}

func (c numberCodec[T]) Decode(src []byte) T {
    var v T
    if _, err := binary.Decode(src, binary.LittleEndian, &v); err != nil {
        panic(err)
    }
    return v
}

type bytesCodec struct {
    width int
}

// BytesCodec stores opaque byte strings of exactly width bytes. Shorter
// values are zero padded, longer ones truncated.
func BytesCodec(width int) Codec[[]byte] {
    return bytesCodec{width: width}
}

func (c bytesCodec) Width() int { return c.width }

func (c bytesCodec) Encode(dst []byte, v []byte) {
    n := copy(dst, v)
    clear(dst[n:])
}

func (c bytesCodec) Decode(src []byte) []byte {
    return append([]byte(nil), src...)
}
