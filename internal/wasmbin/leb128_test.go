package wasmbin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUleb128(t *testing.T) {
	cases := map[uint64][]byte{
		0:   {0x00},
		127: {0x7f},
		128: {0x80, 0x01},
		300: {0xac, 0x02},
	}
	for v, want := range cases {
		require.Equal(t, want, appendUleb128(nil, v))
	}
}

func TestSleb128(t *testing.T) {
	cases := map[int64][]byte{
		0:   {0x00},
		-1:  {0x7f},
		63:  {0x3f},
		64:  {0xc0, 0x00},
		-64: {0x40},
		-65: {0xbf, 0x7f},
	}
	for v, want := range cases {
		require.Equal(t, want, appendSleb128(nil, v))
	}
}

func TestSection(t *testing.T) {
	got := section(1, []byte{0xAA, 0xBB})
	require.Equal(t, []byte{1, 2, 0xAA, 0xBB}, got)
}

func TestAppendName(t *testing.T) {
	got := appendName(nil, "fib")
	require.Equal(t, []byte{3, 'f', 'i', 'b'}, got)
}
