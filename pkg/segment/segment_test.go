package segment

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/queelius/zeroipc/pkg/errors"
	"github.com/queelius/zeroipc/pkg/logger"
	"github.com/queelius/zeroipc/pkg/options"
	"github.com/stretchr/testify/require"
)

var testNameCounter atomic.Uint64

// uniqueName returns a segment name that does not collide with other
// tests running concurrently in this package. The counter restarts on
// every run, so a stale segment left behind by a previous failed run can
// still carry the same name.
func uniqueName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("/zeroipc-test-%d-%d", testNameCounter.Add(1), t.Name()[0])
}

func testConfig() *Config {
	opts := options.NewDefaultOptions()
	return &Config{Options: &opts, Logger: logger.Nop()}
}

func createScratch(t *testing.T, size uint64) (*Segment, string) {
	t.Helper()
	name := uniqueName(t)
	seg, err := Create(name, size, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		seg.Close()
		Unlink(name)
	})
	return seg, name
}

func TestCreateAndOpen(t *testing.T) {
	seg, name := createScratch(t, 1<<20)
	require.Equal(t, uint64(1<<20), seg.Size())
	require.Equal(t, name, seg.Name())

	opened, err := Open(name, testConfig())
	require.NoError(t, err)
	defer opened.Close()
	require.Equal(t, seg.Size(), opened.Size())
}

func TestOpenNotFound(t *testing.T) {
	_, err := Open(uniqueName(t), testConfig())
	require.Error(t, err)
	se, ok := errors.AsSegmentError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeNotFound, se.Code())
}

func TestCreateSizeConflict(t *testing.T) {
	_, name := createScratch(t, 1<<20)

	_, err := Create(name, 2<<20, testConfig())
	require.Error(t, err)
	se, ok := errors.AsSegmentError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeCreateConflict, se.Code())
}

func TestCreateZeroSize(t *testing.T) {
	_, err := Create(uniqueName(t), 0, testConfig())
	require.Error(t, err)
}

func TestCorruptMagicRejected(t *testing.T) {
	seg, name := createScratch(t, 1<<16)
	// Corrupt the magic tag directly in the mapped bytes.
	seg.data[0] = 0xFF

	_, err := Open(name, testConfig())
	require.Error(t, err)
	se, ok := errors.AsSegmentError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeCorruptMagic, se.Code())
}

// TestReferenceCounting checks that the reference counter equals the
// number of live attachers at all times under any sequence of attaches
// and detaches.
func TestReferenceCounting(t *testing.T) {
	_, name := createScratch(t, 1<<20)
	require.EqualValues(t, 1, refCount(t, name))

	a, err := Open(name, testConfig())
	require.NoError(t, err)
	require.EqualValues(t, 2, refCount(t, name))

	b, err := Open(name, testConfig())
	require.NoError(t, err)
	require.EqualValues(t, 3, refCount(t, name))

	require.NoError(t, a.Detach())
	require.EqualValues(t, 2, refCount(t, name))

	require.NoError(t, b.Detach())
	require.EqualValues(t, 1, refCount(t, name))
}

func refCount(t *testing.T, name string) uint32 {
	t.Helper()
	seg, err := Open(name, testConfig())
	require.NoError(t, err)
	defer seg.Detach()
	c := atomic.LoadUint32(seg.refCounterPtr())
	// Opening to inspect adds its own attach; subtract it back out.
	return c - 1
}

func TestDetachTwiceFails(t *testing.T) {
	seg, _ := createScratch(t, 1<<16)
	require.NoError(t, seg.Detach())
	require.Error(t, seg.Detach())
}

func TestUnlinkOnLastClose(t *testing.T) {
	name := uniqueName(t)
	opts := options.NewDefaultOptions()
	opts.UnlinkOnClose = true
	seg, err := Create(name, 1<<16, &Config{Options: &opts, Logger: logger.Nop()})
	require.NoError(t, err)
	require.NoError(t, seg.Close())

	_, err = Open(name, testConfig())
	require.Error(t, err)
}

func TestAllocateAlignmentAndOverflow(t *testing.T) {
	seg, _ := createScratch(t, 8192)

	off1, err := seg.Allocate(10, 8)
	require.NoError(t, err)
	require.EqualValues(t, 0, off1%8)

	off2, err := seg.Allocate(10, 8)
	require.NoError(t, err)
	require.Greater(t, off2, off1)
	require.EqualValues(t, 0, off2%8)

	_, err = seg.Allocate(1<<20, 8)
	require.Error(t, err)
	se, ok := errors.AsSegmentError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeOutOfSpace, se.Code())
}

func TestAllocateConcurrentNeverOverlaps(t *testing.T) {
	seg, _ := createScratch(t, 1<<20)

	const n = 200
	offsets := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			off, err := seg.Allocate(64, 8)
			require.NoError(t, err)
			offsets[i] = off
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, off := range offsets {
		require.False(t, seen[off], "offset %d allocated twice", off)
		seen[off] = true
	}
}

func TestAtOutOfRange(t *testing.T) {
	seg, _ := createScratch(t, 8192)
	_, err := seg.At(8186, 100)
	require.Error(t, err)
}

// TestTableAddFindErase checks that add, find, and erase on the table
// directory agree with each other, and that erase never reclaims the
// name for reuse collisions.
func TestTableAddFindErase(t *testing.T) {
	seg, _ := createScratch(t, 1<<16)
	tbl := seg.Table()

	require.NoError(t, tbl.Add("widget", 128, 64, 8, 8))
	e, err := tbl.Find("widget")
	require.NoError(t, err)
	require.Equal(t, "widget", e.Name)
	require.EqualValues(t, 128, e.Offset)
	require.EqualValues(t, 64, e.Size)

	require.Error(t, tbl.Add("widget", 256, 64, 8, 8))

	require.NoError(t, tbl.Erase("widget"))
	_, err = tbl.Find("widget")
	require.Error(t, err)

	require.Error(t, tbl.Erase("widget"))
}

func TestTableNameTooLongRejected(t *testing.T) {
	seg, _ := createScratch(t, 1<<16)
	longName := make([]byte, 64)
	for i := range longName {
		longName[i] = 'a'
	}
	err := seg.Table().Add(string(longName), 0, 8, 8, 1)
	require.Error(t, err)
}

func TestTableFull(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.TableOptions.Capacity = 2
	seg, err := Create(uniqueName(t), 1<<16, &Config{Options: &opts, Logger: logger.Nop()})
	require.NoError(t, err)
	defer func() { seg.Close(); Unlink(seg.Name()) }()

	require.NoError(t, seg.Table().Add("a", 0, 8, 8, 1))
	require.NoError(t, seg.Table().Add("b", 8, 8, 8, 1))
	err = seg.Table().Add("c", 16, 8, 8, 1)
	require.Error(t, err)
	require.Equal(t, errors.ErrorCodeTableFull, errors.GetErrorCode(err))
}

// TestCrossHandleArrayVisibility simulates cross-process sharing within a
// single process: one handle creates the array and writes into it, a
// second handle opens it by name with capacity 0 and reads the same
// bytes back.
func TestCrossHandleArrayVisibility(t *testing.T) {
	name := uniqueName(t)
	a, err := Create(name, 1<<20, testConfig())
	require.NoError(t, err)
	defer func() { a.Close(); Unlink(name) }()

	msg := []byte("Hello, World!\x00")
	off, err := a.Allocate(uint64(8+len(msg)), 8)
	require.NoError(t, err)
	require.NoError(t, a.Table().Add("msg", off, uint64(8+len(msg)), 1, uint32(len(msg))))

	region, err := a.At(off, uint64(8+len(msg)))
	require.NoError(t, err)
	copy(region[8:], msg)

	b, err := Open(name, testConfig())
	require.NoError(t, err)
	defer b.Close()

	entry, err := b.Find("msg")
	require.NoError(t, err)
	require.EqualValues(t, len(msg), entry.ElemCount)

	region2, err := b.At(entry.Offset, entry.Size)
	require.NoError(t, err)
	require.Equal(t, msg, region2[8:])
}
