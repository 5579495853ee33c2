package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMagicAndVersionConstants(t *testing.T) {
	require.Equal(t, uint32(0x5A49504D), Magic)
	require.Equal(t, []byte("ZIPM"), []byte{byte(Magic), byte(Magic >> 8), byte(Magic >> 16), byte(Magic >> 24)})
}

func TestUint32RoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	PutUint32(buf, 4, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), GetUint32(buf, 4))
}

func TestUint64RoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	PutUint64(buf, 0, 0x0123456789ABCDEF)
	require.Equal(t, uint64(0x0123456789ABCDEF), GetUint64(buf, 0))
}

func TestNameRoundTrip(t *testing.T) {
	buf := make([]byte, EntryNameLen)
	PutName(buf, 0, "queue-one")
	require.Equal(t, "queue-one", GetName(buf, 0))

	// The unused tail of the field must be zero-padded, not left with
	// garbage, since a shorter subsequent name must not leak trailing
	// bytes from a longer one previously written to the same slot.
	PutName(buf, 0, "ab")
	for i := 2; i < EntryNameLen; i++ {
		require.Zero(t, buf[i])
	}
	require.Equal(t, "ab", GetName(buf, 0))
}

func TestNameExactFit(t *testing.T) {
	buf := make([]byte, EntryNameLen)
	name := make([]byte, MaxNameLen)
	for i := range name {
		name[i] = 'x'
	}
	PutName(buf, 0, string(name))
	require.Equal(t, string(name), GetName(buf, 0))
}

func TestFloat32BitsRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutFloat32Bits(buf, 0, 0x3F000000) // 0.5f
	require.Equal(t, uint32(0x3F000000), GetFloat32Bits(buf, 0))
}
