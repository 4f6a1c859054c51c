package poison

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
    b := []byte{1, 2, 3, 4, 5}
    Fill(b[1:4], DefaultByte)
    require.Equal(t, []byte{1, DefaultByte, DefaultByte, DefaultByte, 5}, b)
    require.True(t, IsFilled(b[1:4], DefaultByte))
    require.False(t, IsFilled(b, DefaultByte))
}

func TestScan(t *testing.T) {
    tests := []struct {
        name     string
        data     []byte
        filled   bool
        contains bool
        count    int
        first    int
    }{
        {"empty", nil, true, false, 0, -1},
        {"clean", []byte{0, 1, 2}, false, false, 0, -1},
        {"one poison byte", []byte{0, DefaultByte, 2}, false, true, 1, 1},
        {"all poison", []byte{DefaultByte, DefaultByte}, true, true, 2, 0},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            require.Equal(t, tt.filled, IsFilled(tt.data, DefaultByte))
            require.Equal(t, tt.contains, Contains(tt.data, DefaultByte))
            require.Equal(t, tt.count, Count(tt.data, DefaultByte))
            require.Equal(t, tt.first, Index(tt.data, DefaultByte, true))
        })
    }
}

func TestIndex_FirstMismatch(t *testing.T) {
    b := []byte{DefaultByte, DefaultByte, 9, DefaultByte}
    require.Equal(t, 2, Index(b, DefaultByte, false))
}
