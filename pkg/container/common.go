// Package container implements the fixed-capacity data structures that
// live inside a segment: array, queue, stack, ring, hash map, set, and
// pool. Every type here follows the same shape — a small fixed header
// immediately followed by a payload, both reached by slicing the
// segment's mapped bytes at the offset the table resolves the name to.
package container

import (
	"github.com/queelius/zeroipc/pkg/errors"
	"github.com/queelius/zeroipc/pkg/segment"
)

// resolve implements the create-or-open contract shared by every
// container type: the first caller to name a structure with a nonzero
// capacity creates it; later callers
// with capacity 0 or a matching capacity attach to it; a capacity
// mismatch is an error; and naming a nonexistent structure with capacity
// 0 is a not-found error.
//
// headerSize and elemSize describe the container's own header layout and
// record width; payloadSize receives the resolved capacity and returns
// the total payload byte length, since some containers (stack, ring,
// hash map) size their payload differently than capacity*elemSize.
func resolve(
	seg *segment.Segment,
	name string,
	capacity uint32,
	elemSize uint32,
	headerSize int,
	payloadSize func(capacity uint32) uint64,
) (data []byte, entry segment.Entry, created bool, err error) {
	entry, findErr := seg.Table().Find(name)
	if findErr == nil {
		if capacity != 0 && entry.ElemCount != capacity {
			return nil, entry, false, errors.NewCapacityMismatchError(name, int(capacity), int(entry.ElemCount))
		}
		data, err = seg.At(entry.Offset, entry.Size)
		return data, entry, false, err
	}

	if capacity == 0 {
		return nil, entry, false, findErr
	}

	total := uint64(headerSize) + payloadSize(capacity)
	offset, allocErr := seg.Allocate(total, 0)
	if allocErr != nil {
		return nil, entry, false, allocErr
	}

	if addErr := seg.Table().Add(name, offset, total, elemSize, capacity); addErr != nil {
		return nil, entry, false, addErr
	}

	data, err = seg.At(offset, total)
	entry = segment.Entry{Name: name, Offset: offset, Size: total, ElemSize: elemSize, ElemCount: capacity}
	return data, entry, true, err
}
