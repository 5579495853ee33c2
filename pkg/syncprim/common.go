package syncprim

import (
	"github.com/queelius/zeroipc/pkg/segment"
)

// resolveFixed implements the create-or-open contract for the sync
// primitives, which have a fixed-size header and no element payload:
// the first caller to name one creates it; later callers attach to the
// same bytes. Unlike the container package's create-or-open helper,
// there is no capacity to mismatch on, since a semaphore/latch/barrier's
// shape never varies with a caller-supplied count.
func resolveFixed(seg *segment.Segment, name string, headerSize int) ([]byte, segment.Entry, bool, error) {
	entry, findErr := seg.Table().Find(name)
	if findErr == nil {
		data, err := seg.At(entry.Offset, entry.Size)
		return data, entry, false, err
	}

	offset, allocErr := seg.Allocate(uint64(headerSize), 0)
	if allocErr != nil {
		return nil, entry, false, allocErr
	}

	if addErr := seg.Table().Add(name, offset, uint64(headerSize), 1, 1); addErr != nil {
		return nil, entry, false, addErr
	}

	data, err := seg.At(offset, uint64(headerSize))
	entry = segment.Entry{Name: name, Offset: offset, Size: uint64(headerSize), ElemSize: 1, ElemCount: 1}
	return data, entry, true, err
}
