package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayGetSetFill(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)

	arr, err := OpenArray[int64](seg, "numbers", 16)
	require.NoError(t, err)
	require.EqualValues(t, 16, arr.Len())

	require.NoError(t, arr.Set(0, 42))
	v, err := arr.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	arr.Fill(7)
	for i := uint64(0); i < arr.Len(); i++ {
		v, err := arr.Get(i)
		require.NoError(t, err)
		require.EqualValues(t, 7, v)
	}
}

func TestArrayOutOfRange(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	arr, err := OpenArray[int32](seg, "bounded", 4)
	require.NoError(t, err)

	_, err = arr.Get(4)
	require.Error(t, err)
	require.Error(t, arr.Set(100, 1))
}

func TestArrayReopenSameCapacity(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	arr, err := OpenArray[byte](seg, "msg", 14)
	require.NoError(t, err)
	require.NoError(t, arr.Set(0, 'H'))

	reopened, err := OpenArray[byte](seg, "msg", 0)
	require.NoError(t, err)
	v, err := reopened.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 'H', v)
}

func TestArrayCapacityMismatch(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	_, err := OpenArray[byte](seg, "msg", 14)
	require.NoError(t, err)

	_, err = OpenArray[byte](seg, "msg", 20)
	require.Error(t, err)
}
