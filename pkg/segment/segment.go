package segment

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/errors"
	"go.uber.org/zap"
)

// shmFile is the OS handle backing a segment's mapping. Its fields are
// platform-specific only in how shmOpen/shmMmap populate them; the
// Segment type above never looks inside it.
type shmFile struct {
	fd int
}

// Create creates a new named shared-memory segment of the given size, or
// attaches to an existing one of the same size. Attaching to an existing
// segment of a different size is a create-conflict error.
func Create(name string, size uint64, config *Config) (*Segment, error) {
	name = normalizeName(name)
	if config == nil || config.Options == nil {
		return nil, fmt.Errorf("invalid segment configuration")
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if size == 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "segment size must be greater than zero").
			WithField("size").WithRule("positive").WithProvided(size)
	}

	log.Infow("creating segment", "name", name, "size", size)

	minSize := wire.SegHeaderSize + tableByteSize(config.Options.TableOptions.Capacity)
	if size < uint64(minSize) {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "segment size too small for table capacity").
			WithField("size").WithProvided(size).WithExpected(minSize)
	}

	file, created, err := openOrCreate(name, int64(size))
	if err != nil {
		return nil, errors.ClassifyShmOpenError(err, name)
	}

	actualSize, err := shmStatSize(file)
	if err != nil {
		shmClose(file)
		return nil, errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to stat segment").WithSegmentName(name)
	}

	data, err := shmMmap(file, actualSize)
	if err != nil {
		shmClose(file)
		return nil, errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to map segment").WithSegmentName(name)
	}

	seg := &Segment{name: name, data: data, file: file, options: config.Options, log: log}

	if created {
		seg.initHeader(size, config.Options.TableOptions.Capacity)
		atomic.StoreUint32(seg.refCounterPtr(), 1)
		log.Infow("segment created", "name", name, "size", size, "tableCapacity", config.Options.TableOptions.Capacity)
	} else {
		if err := seg.validateHeader(); err != nil {
			shmMunmap(data)
			shmClose(file)
			return nil, err
		}
		if uint64(actualSize) != size && size != 0 {
			if existing := wire.GetUint64(data, wire.SegHeaderTotalSizeOff); existing != size {
				shmMunmap(data)
				shmClose(file)
				return nil, errors.NewSegmentError(nil, errors.ErrorCodeCreateConflict, "segment exists with a different size").
					WithSegmentName(name).WithSize(existing)
			}
		}
		atomic.AddUint32(seg.refCounterPtr(), 1)
		log.Infow("attached to existing segment", "name", name, "size", actualSize)
	}

	seg.table = openTable(seg)
	return seg, nil
}

// Open attaches to an existing named segment. It returns a not-found
// error if the segment does not exist.
func Open(name string, config *Config) (*Segment, error) {
	name = normalizeName(name)
	if config == nil || config.Options == nil {
		return nil, fmt.Errorf("invalid segment configuration")
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	file, err := shmOpen(name, false, 0)
	if err != nil {
		return nil, errors.ClassifyShmOpenError(err, name)
	}

	size, err := shmStatSize(file)
	if err != nil {
		shmClose(file)
		return nil, errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to stat segment").WithSegmentName(name)
	}

	data, err := shmMmap(file, size)
	if err != nil {
		shmClose(file)
		return nil, errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to map segment").WithSegmentName(name)
	}

	seg := &Segment{name: name, data: data, file: file, options: config.Options, log: log}
	if err := seg.validateHeader(); err != nil {
		shmMunmap(data)
		shmClose(file)
		return nil, err
	}

	atomic.AddUint32(seg.refCounterPtr(), 1)
	seg.table = openTable(seg)
	log.Infow("opened segment", "name", name, "size", size)
	return seg, nil
}

// openOrCreate opens the backing object, creating it if absent, and
// reports whether it was freshly created by this call.
func openOrCreate(name string, size int64) (shmFile, bool, error) {
	if f, err := shmOpen(name, false, 0); err == nil {
		return f, false, nil
	}
	f, err := shmOpen(name, true, size)
	return f, true, err
}

func (s *Segment) initHeader(size uint64, tableCapacity uint32) {
	wire.PutUint32(s.data, wire.SegHeaderMagicOff, wire.Magic)
	wire.PutUint32(s.data, wire.SegHeaderVersionOff, wire.Version)
	wire.PutUint32(s.data, wire.SegHeaderLiveEntryCountOff, 0)
	wire.PutUint32(s.data, wire.SegHeaderRefCountOff, 0)
	wire.PutUint64(s.data, wire.SegHeaderTotalSizeOff, size)
	wire.PutUint64(s.data, wire.SegHeaderNextCursorOff, uint64(wire.SegHeaderSize+tableByteSize(tableCapacity)))

	tableOff := wire.SegHeaderSize
	wire.PutUint32(s.data, tableOff+wire.TableHeaderCapacityOff, tableCapacity)
	wire.PutUint32(s.data, tableOff+wire.TableHeaderBusyOff, 0)
	wire.PutUint64(s.data, tableOff+wire.TableHeaderReservedOff, 0)
}

func (s *Segment) validateHeader() error {
	magic := wire.GetUint32(s.data, wire.SegHeaderMagicOff)
	if magic != wire.Magic {
		return errors.NewSegmentError(nil, errors.ErrorCodeCorruptMagic, "segment magic tag mismatch").
			WithSegmentName(s.name).WithDetail("observed", magic).WithDetail("expected", wire.Magic)
	}
	version := wire.GetUint32(s.data, wire.SegHeaderVersionOff)
	if version != wire.Version {
		return errors.NewSegmentError(nil, errors.ErrorCodeUnsupportedVersion, "segment format version mismatch").
			WithSegmentName(s.name).WithDetail("observed", version).WithDetail("expected", wire.Version)
	}
	return nil
}

// Detach releases this process's handle on the segment, decrementing the
// shared reference counter. A post-decrement observation of zero signals
// that the caller MAY unlink the segment under an "unlink on last close"
// policy; UnlinkOnClose in options controls whether Close does so here.
func (s *Segment) Detach() error {
	if !s.closed.CompareAndSwap(false, true) {
		return errors.NewSegmentError(nil, errors.ErrorCodeInvalidInput, "segment already closed").WithSegmentName(s.name)
	}

	remaining := atomic.AddUint32(s.refCounterPtr(), ^uint32(0))
	s.log.Infow("detaching segment", "name", s.name, "remainingAttachers", remaining)

	shouldUnlink := remaining == 0 && s.options.UnlinkOnClose

	if err := shmMunmap(s.data); err != nil {
		return errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to unmap segment").WithSegmentName(s.name)
	}
	if err := shmClose(s.file); err != nil {
		return errors.NewSegmentError(err, errors.ErrorCodeIO, "failed to close segment file descriptor").WithSegmentName(s.name)
	}

	if shouldUnlink {
		if err := Unlink(s.name); err != nil {
			return err
		}
		s.log.Infow("unlinked segment on last detach", "name", s.name)
	}

	return nil
}

// Close is an alias for Detach, matching the convention used by the rest
// of the container package.
func (s *Segment) Close() error { return s.Detach() }

// Unlink removes the segment's name so future Opens fail; existing
// mappings, including the caller's own if still attached, remain valid.
func Unlink(name string) error {
	name = normalizeName(name)
	if err := shmUnlink(name); err != nil {
		return errors.ClassifyShmOpenError(err, name)
	}
	return nil
}

// Size returns the segment's total mapped size in bytes.
func (s *Segment) Size() uint64 {
	return wire.GetUint64(s.data, wire.SegHeaderTotalSizeOff)
}

// Name returns the segment's normalized name.
func (s *Segment) Name() string { return s.name }

// Table returns the segment's table directory.
func (s *Segment) Table() *Table { return s.table }

// Allocate bumps the segment's allocation cursor by size bytes, rounded
// up to alignment, and returns the offset the caller should use. It does
// not add a table entry; callers add one separately once the structure's
// header has been initialized at the returned offset.
func (s *Segment) Allocate(size uint64, alignment uint32) (uint64, error) {
	if alignment == 0 {
		alignment = s.options.DefaultAlignment
	}
	if !isPowerOfTwo(alignment) {
		return 0, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "alignment must be a power of two").
			WithField("alignment").WithProvided(alignment)
	}

	total := s.Size()
	for {
		cur := atomic.LoadUint64(s.cursorPtr())

		aligned := alignUp(cur, uint64(alignment))
		if aligned < cur {
			return 0, errors.NewSegmentError(nil, errors.ErrorCodeAllocationOverflow, "allocation cursor overflowed on alignment").
				WithSegmentName(s.name).WithOffset(cur)
		}

		next := aligned + size
		if next < aligned {
			return 0, errors.NewSegmentError(nil, errors.ErrorCodeAllocationOverflow, "allocation size overflowed the cursor").
				WithSegmentName(s.name).WithSize(size)
		}
		if next > total {
			return 0, errors.NewSegmentError(nil, errors.ErrorCodeOutOfSpace, "segment has no remaining capacity").
				WithSegmentName(s.name).WithSize(size).WithOffset(aligned)
		}

		if atomic.CompareAndSwapUint64(s.cursorPtr(), cur, next) {
			return aligned, nil
		}
	}
}

// At returns the sub-slice of the segment's mapped bytes beginning at
// offset and running for size bytes, validated against the segment's
// total size.
func (s *Segment) At(offset, size uint64) ([]byte, error) {
	total := s.Size()
	if offset > total || size > total-offset {
		return nil, errors.NewSegmentError(nil, errors.ErrorCodeOutOfRange, "offset/size out of segment bounds").
			WithSegmentName(s.name).WithOffset(offset).WithSize(size)
	}
	return s.data[offset : offset+size], nil
}

// Find resolves a name through the segment's table to its entry, or
// returns a not-found error.
func (s *Segment) Find(name string) (Entry, error) {
	return s.table.Find(name)
}

func normalizeName(name string) string {
	if !strings.HasPrefix(name, "/") {
		return "/" + name
	}
	return name
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

func tableByteSize(capacity uint32) int {
	return wire.TableHeaderSize + int(capacity)*wire.EntrySize
}
