package segment

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/errors"
)

// Entry describes one resolved table row: the structure's name, its
// location and extent within the segment, and its element shape.
type Entry struct {
	Name      string
	Offset    uint64
	Size      uint64
	ElemSize  uint32
	ElemCount uint32
}

// Table is the fixed-capacity directory at the front of a segment,
// mapping names to entries. Add and Erase are mutually excluded by an
// flock(2) on the segment's backing file plus a CAS-based busy flag
// embedded in the table header (see lock); this implementation does not
// rely on an external creation protocol.
type Table struct {
	seg      *Segment
	base     int    // Byte offset of the table header within seg.data.
	capacity uint32 // Fixed entry count, set once at segment creation.
}

func openTable(seg *Segment) *Table {
	base := wire.SegHeaderSize
	capacity := wire.GetUint32(seg.data, base+wire.TableHeaderCapacityOff)
	return &Table{seg: seg, base: base, capacity: capacity}
}

func (t *Table) busyPtr() *uint32 {
	return (*uint32)(unsafe.Pointer(&t.seg.data[t.base+wire.TableHeaderBusyOff]))
}

func (t *Table) entryOffset(i uint32) int {
	return t.base + wire.TableHeaderSize + int(i)*wire.EntrySize
}

// lock acquires the table's mutual exclusion for Add/Erase in two layers:
// an OS-level flock(2) on the segment's backing file descriptor gives
// cross-process exclusion that is released automatically if the holder
// crashes mid-critical-section, tolerating arbitrary prior failure, and
// the in-segment CAS busy flag
// gives fast, allocation-free exclusion between goroutines within this
// same process that all share one fd (flock's lock is scoped to the
// open file description, not the goroutine). Both are acquired, in that
// order, and both are released in lock()/unlock(); either one blocking
// unboundedly is bounded by the segment's configured OpenTimeout.
func (t *Table) lock() error {
	deadline := time.Now().Add(t.seg.options.OpenTimeout)
	backoff := time.Microsecond
	for {
		if err := shmTryFlock(t.seg.file); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return errors.NewTableError(nil, errors.ErrorCodeInternal, "timed out waiting for table flock").
				WithOperation("lock")
		}
		time.Sleep(backoff)
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}

	for {
		if atomic.CompareAndSwapUint32(t.busyPtr(), 0, 1) {
			return nil
		}
		if time.Now().After(deadline) {
			shmFunlock(t.seg.file)
			return errors.NewTableError(nil, errors.ErrorCodeInternal, "timed out waiting for table lock").
				WithOperation("lock")
		}
		time.Sleep(backoff)
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}
}

func (t *Table) unlock() {
	atomic.StoreUint32(t.busyPtr(), 0)
	shmFunlock(t.seg.file)
}

// Add registers a new named entry in the table. It fails with
// already-exists if the name maps to an active entry, and with
// table-full if the fixed entry array is exhausted.
func (t *Table) Add(name string, offset, size uint64, elemSize, elemCount uint32) error {
	if len(name) > wire.MaxNameLen {
		return errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "entry name exceeds the table's fixed name field").
			WithField("name").WithProvided(len(name)).WithExpected(wire.MaxNameLen)
	}

	if err := t.lock(); err != nil {
		return err
	}
	defer t.unlock()

	freeSlot := -1
	for i := uint32(0); i < t.capacity; i++ {
		off := t.entryOffset(i)
		active := wire.GetUint32(t.seg.data, off+wire.EntryActiveOff)
		if active == 1 {
			if wire.GetName(t.seg.data, off+wire.EntryNameOff) == name {
				return errors.NewEntryExistsError(name)
			}
			continue
		}
		if freeSlot == -1 {
			freeSlot = int(i)
		}
	}

	if freeSlot == -1 {
		return errors.NewTableFullError(int(t.capacity))
	}

	off := t.entryOffset(uint32(freeSlot))
	wire.PutName(t.seg.data, off+wire.EntryNameOff, name)
	wire.PutUint64(t.seg.data, off+wire.EntryOffsetOff, offset)
	wire.PutUint64(t.seg.data, off+wire.EntrySizeOff, size)
	wire.PutUint32(t.seg.data, off+wire.EntryElemSizeOff, elemSize)
	wire.PutUint32(t.seg.data, off+wire.EntryElemCountOff, elemCount)
	wire.PutUint32(t.seg.data, off+wire.EntryActiveOff, 1)

	atomic.AddUint32(t.seg.liveEntryCountPtr(), 1)
	return nil
}

// Find performs a linear scan over the entry array and returns the first
// active entry matching name. Names are compared as byte strings, not
// Unicode-normalized.
func (t *Table) Find(name string) (Entry, error) {
	for i := uint32(0); i < t.capacity; i++ {
		off := t.entryOffset(i)
		if wire.GetUint32(t.seg.data, off+wire.EntryActiveOff) != 1 {
			continue
		}
		if wire.GetName(t.seg.data, off+wire.EntryNameOff) != name {
			continue
		}
		return t.readEntry(off), nil
	}
	return Entry{}, errors.NewEntryNotFoundError(name)
}

func (t *Table) readEntry(off int) Entry {
	return Entry{
		Name:      wire.GetName(t.seg.data, off+wire.EntryNameOff),
		Offset:    wire.GetUint64(t.seg.data, off+wire.EntryOffsetOff),
		Size:      wire.GetUint64(t.seg.data, off+wire.EntrySizeOff),
		ElemSize:  wire.GetUint32(t.seg.data, off+wire.EntryElemSizeOff),
		ElemCount: wire.GetUint32(t.seg.data, off+wire.EntryElemCountOff),
	}
}

// Erase marks a named entry inactive. Storage is not reclaimed; a future
// Add scanning for a free slot may reuse this row, but the bytes it
// pointed to remain allocated for the life of the segment.
func (t *Table) Erase(name string) error {
	if err := t.lock(); err != nil {
		return err
	}
	defer t.unlock()

	for i := uint32(0); i < t.capacity; i++ {
		off := t.entryOffset(i)
		if wire.GetUint32(t.seg.data, off+wire.EntryActiveOff) != 1 {
			continue
		}
		if wire.GetName(t.seg.data, off+wire.EntryNameOff) != name {
			continue
		}
		wire.PutUint32(t.seg.data, off+wire.EntryActiveOff, 0)
		atomic.AddUint32(t.seg.liveEntryCountPtr(), ^uint32(0))
		return nil
	}

	return errors.NewEntryNotFoundError(name)
}

// EntryCount returns the number of currently active entries.
func (t *Table) EntryCount() uint32 {
	return atomic.LoadUint32(t.seg.liveEntryCountPtr())
}

// Capacity returns the table's fixed entry capacity.
func (t *Table) Capacity() uint32 {
	return t.capacity
}

// AvailableEntries returns how many more entries the table can hold.
func (t *Table) AvailableEntries() uint32 {
	return t.capacity - t.EntryCount()
}

// List returns every active entry, for use by the inspector CLI.
func (t *Table) List() []Entry {
	entries := make([]Entry, 0, t.EntryCount())
	for i := uint32(0); i < t.capacity; i++ {
		off := t.entryOffset(i)
		if wire.GetUint32(t.seg.data, off+wire.EntryActiveOff) != 1 {
			continue
		}
		entries = append(entries, t.readEntry(off))
	}
	return entries
}
