package container

import (
	"sync/atomic"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/errors"
	"github.com/queelius/zeroipc/pkg/segment"
)

// Pool is a fixed-capacity object allocator returning stable indices,
// not pointers, so handles are portable across processes. Free slots
// are threaded into a singly linked free list using the first 8 bytes
// of each slot's storage to hold the next-free index; that storage is
// overwritten by the caller's own data the moment a slot is acquired.
type Pool[T any] struct {
	data     []byte
	capacity uint64
	stride   uint64
}

// OpenPool creates or attaches to a named pool.
func OpenPool[T any](seg *segment.Segment, name string, capacity uint32) (*Pool[T], error) {
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))
	stride := uint64(8 + padTo8(uintptr(elemSize)))
	if stride < 8 {
		stride = 8
	}

	data, entry, created, err := resolve(seg, name, capacity, elemSize, wire.PoolHeaderSize, func(c uint32) uint64 {
		return uint64(c) * stride
	})
	if err != nil {
		return nil, err
	}

	p := &Pool[T]{data: data, capacity: uint64(entry.ElemCount), stride: stride}
	if created {
		wire.PutUint64(data, wire.PoolHeaderCapacityOff, p.capacity)
		wire.PutUint64(data, wire.PoolHeaderFreeHeadOff, 0)
		wire.PutUint64(data, wire.PoolHeaderAllocatedOff, 0)
		for i := uint64(0); i < p.capacity; i++ {
			next := i + 1
			if next == p.capacity {
				next = wire.PoolFreeListNone
			}
			atomic.StoreUint64(p.nextPtr(i), next)
		}
	}
	return p, nil
}

func (p *Pool[T]) payload() []byte { return p.data[wire.PoolHeaderSize:] }

func (p *Pool[T]) freeHeadPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&p.data[wire.PoolHeaderFreeHeadOff]))
}
func (p *Pool[T]) allocatedPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&p.data[wire.PoolHeaderAllocatedOff]))
}

func (p *Pool[T]) nextPtr(i uint64) *uint64 {
	return (*uint64)(unsafe.Pointer(&p.payload()[i*p.stride]))
}

// Slot returns a pointer to the record at index i. The caller is
// responsible for only dereferencing indices it currently holds.
func (p *Pool[T]) Slot(i uint64) *T {
	return (*T)(unsafe.Pointer(&p.payload()[i*p.stride]))
}

// Capacity returns the pool's fixed slot count.
func (p *Pool[T]) Capacity() uint64 { return p.capacity }

// Allocated returns the number of slots currently checked out.
func (p *Pool[T]) Allocated() uint64 { return atomic.LoadUint64(p.allocatedPtr()) }

// Acquire pops a free slot index off the free list, returning ErrFull if
// none remain.
func (p *Pool[T]) Acquire() (uint64, error) {
	for {
		head := atomic.LoadUint64(p.freeHeadPtr())
		if head == wire.PoolFreeListNone {
			return 0, ErrFull
		}
		next := atomic.LoadUint64(p.nextPtr(head))
		if atomic.CompareAndSwapUint64(p.freeHeadPtr(), head, next) {
			atomic.AddUint64(p.allocatedPtr(), 1)
			return head, nil
		}
	}
}

// Release returns index to the free list. Releasing an index not
// currently held, or releasing it twice, corrupts the free list; callers
// are responsible for tracking which indices they hold.
func (p *Pool[T]) Release(index uint64) error {
	if index >= p.capacity {
		return errors.NewSegmentError(nil, errors.ErrorCodeOutOfRange, "pool index out of range").
			WithDetail("index", index).WithDetail("capacity", p.capacity)
	}
	for {
		head := atomic.LoadUint64(p.freeHeadPtr())
		atomic.StoreUint64(p.nextPtr(index), head)
		if atomic.CompareAndSwapUint64(p.freeHeadPtr(), head, index) {
			atomic.AddUint64(p.allocatedPtr(), ^uint64(0))
			return nil
		}
	}
}
