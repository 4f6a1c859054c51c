package checksum

import (
    "hash/fnv"

    "github.com/cespare/xxhash/v2"
)

// Func computes the content hash of a byte range.
type Func func(b []byte) uint64

// XXHash is the default content hash.
func XXHash(b []byte) uint64 {
    return xxhash.Sum64(b)
}

func FNV(b []byte) uint64 {
    h := fnv.New64a()
    h.Write(b)
    return h.Sum64()
}
