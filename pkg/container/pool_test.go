package container

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolAcquireReleaseBasic(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	p, err := OpenPool[[16]byte](seg, "pool", 4)
	require.NoError(t, err)

	idx0, err := p.Acquire()
	require.NoError(t, err)
	idx1, err := p.Acquire()
	require.NoError(t, err)
	require.NotEqual(t, idx0, idx1)
	require.EqualValues(t, 2, p.Allocated())

	*p.Slot(idx0) = [16]byte{1}
	require.NoError(t, p.Release(idx0))
	require.EqualValues(t, 1, p.Allocated())

	idx2, err := p.Acquire()
	require.NoError(t, err)
	require.Equal(t, idx0, idx2) // Freed slot is reused.
}

func TestPoolExhaustion(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	p, err := OpenPool[int64](seg, "small", 2)
	require.NoError(t, err)

	_, err = p.Acquire()
	require.NoError(t, err)
	_, err = p.Acquire()
	require.NoError(t, err)
	_, err = p.Acquire()
	require.ErrorIs(t, err, ErrFull)
}

func TestPoolReleaseOutOfRange(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	p, err := OpenPool[int64](seg, "bounded", 4)
	require.NoError(t, err)
	require.Error(t, p.Release(100))
}

// TestPoolConcurrentHandlesDistinct checks that pool handles are distinct
// across concurrent allocations up to capacity.
func TestPoolConcurrentHandlesDistinct(t *testing.T) {
	seg := newScratchSegment(t, 1<<20)
	const capacity = 500
	p, err := OpenPool[int64](seg, "concurrent", capacity)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[uint64]bool, capacity)
	var wg sync.WaitGroup
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := p.Acquire()
			require.NoError(t, err)
			mu.Lock()
			require.False(t, seen[idx], "handle %d issued twice concurrently", idx)
			seen[idx] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, capacity)
	_, err = p.Acquire()
	require.ErrorIs(t, err, ErrFull)
}
