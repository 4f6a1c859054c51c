package poison

import "bytes"

// DefaultByte is written into every unused or freed element slot. It is the
// low byte of -345, which shows up as 0xA7 in hex dumps and is uncommon at
// the start of small integers and floats.
const DefaultByte byte = 0xA7

// Fill overwrites every byte of b with p.
func Fill(b []byte, p byte) {
    for i := range b {
        b[i] = p
    }
}

// IsFilled reports whether every byte of b equals p. An empty range is
// considered filled.
func IsFilled(b []byte, p byte) bool {
    return Index(b, p, false) < 0
}

// Contains reports whether at least one byte of b equals p.
func Contains(b []byte, p byte) bool {
    return bytes.IndexByte(b, p) >= 0
}

// Index returns the offset of the first byte that equals p (match == true) or
// differs from p (match == false), or -1 if there is none.
func Index(b []byte, p byte, match bool) int {
    if match {
        return bytes.IndexByte(b, p)
    }
    for i, v := range b {
        if v != p {
            return i
        }
    }
    return -1
}

// Count returns the number of bytes in b equal to p.
func Count(b []byte, p byte) int {
    return bytes.Count(b, []byte{p})
}
