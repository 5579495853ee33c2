package container

import (
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/errors"
	"github.com/queelius/zeroipc/pkg/segment"
)

// Array is a fixed-length, bit-copyable record vector. No atomic
// operations are performed on the whole array; element-level atomicity,
// if any, is T's responsibility.
type Array[T any] struct {
	data     []byte
	capacity uint64
}

// OpenArray creates or attaches to a named array, per the create-or-open
// contract in common.go. Pass capacity 0 to attach to an existing array
// without specifying its size again.
func OpenArray[T any](seg *segment.Segment, name string, capacity uint32) (*Array[T], error) {
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))

	data, entry, created, err := resolve(seg, name, capacity, elemSize, wire.ArrayHeaderSize, func(c uint32) uint64 {
		return uint64(c) * uint64(elemSize)
	})
	if err != nil {
		return nil, err
	}

	if created {
		wire.PutUint64(data, wire.ArrayHeaderCapacityOff, uint64(entry.ElemCount))
	}

	return &Array[T]{data: data, capacity: uint64(entry.ElemCount)}, nil
}

// Len returns the array's fixed capacity.
func (a *Array[T]) Len() uint64 { return a.capacity }

func (a *Array[T]) payload() []byte { return a.data[wire.ArrayHeaderSize:] }

// Get returns the element at index i.
func (a *Array[T]) Get(i uint64) (T, error) {
	var zero T
	if i >= a.capacity {
		return zero, errors.NewSegmentError(nil, errors.ErrorCodeOutOfRange, "array index out of range").
			WithDetail("index", i).WithDetail("capacity", a.capacity)
	}
	elemSize := unsafe.Sizeof(zero)
	return *(*T)(unsafe.Pointer(&a.payload()[uint64(elemSize)*i])), nil
}

// Set writes the element at index i.
func (a *Array[T]) Set(i uint64, v T) error {
	var zero T
	if i >= a.capacity {
		return errors.NewSegmentError(nil, errors.ErrorCodeOutOfRange, "array index out of range").
			WithDetail("index", i).WithDetail("capacity", a.capacity)
	}
	elemSize := unsafe.Sizeof(zero)
	*(*T)(unsafe.Pointer(&a.payload()[uint64(elemSize)*i])) = v
	return nil
}

// Fill sets every element in the array to v.
func (a *Array[T]) Fill(v T) {
	for i := uint64(0); i < a.capacity; i++ {
		a.Set(i, v)
	}
}
