package container

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/segment"
)

// stackSpinLimit bounds how long Pop waits on a slot's fill marker before
// giving up and reading anyway. A producer that crashes between
// reserving a slot and writing it leaves the marker permanently unset;
// spinning forever would hang every subsequent Pop, so this caps the
// wait and falls back to reading the slot anyway rather than stalling
// indefinitely.
const stackSpinLimit = 4096

// Stack is a bounded multi-producer/multi-consumer LIFO. Each slot
// carries an atomic fill marker so Pop waits on a slot a concurrent Push
// has reserved (via the top CAS) but not yet finished writing, narrowing
// the race a plain read-then-CAS design would otherwise have. The wait is
// capped at stackSpinLimit spins, after which Pop reads the slot as it is.
type Stack[T any] struct {
	data     []byte
	capacity uint64 // The logical capacity; internal slot count is capacity+1.
	stride   uint64
}

// OpenStack creates or attaches to a named stack.
func OpenStack[T any](seg *segment.Segment, name string, capacity uint32) (*Stack[T], error) {
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))
	stride := uint64(8 + padTo8(uintptr(elemSize)))

	data, entry, created, err := resolve(seg, name, capacity, elemSize, wire.StackHeaderSize, func(c uint32) uint64 {
		return (uint64(c) + 1) * stride
	})
	if err != nil {
		return nil, err
	}

	s := &Stack[T]{data: data, capacity: uint64(entry.ElemCount), stride: stride}
	if created {
		wire.PutUint64(data, wire.StackHeaderTopOff, 0)
		wire.PutUint64(data, wire.StackHeaderCapacityOff, s.capacity)
	}
	return s, nil
}

func (s *Stack[T]) payload() []byte { return s.data[wire.StackHeaderSize:] }
func (s *Stack[T]) topPtr() *uint64 { return (*uint64)(unsafe.Pointer(&s.data[wire.StackHeaderTopOff])) }

func (s *Stack[T]) seqPtr(i uint64) *uint64 {
	return (*uint64)(unsafe.Pointer(&s.payload()[i*s.stride]))
}

func (s *Stack[T]) dataPtr(i uint64) *T {
	return (*T)(unsafe.Pointer(&s.payload()[i*s.stride+8]))
}

// Capacity returns the stack's fixed logical capacity.
func (s *Stack[T]) Capacity() uint64 { return s.capacity }

// Push places v on top of the stack, returning ErrFull if it's at capacity.
func (s *Stack[T]) Push(v T) error {
	for {
		top := atomic.LoadUint64(s.topPtr())
		if top >= s.capacity {
			return ErrFull
		}
		if atomic.CompareAndSwapUint64(s.topPtr(), top, top+1) {
			*s.dataPtr(top) = v
			atomic.StoreUint64(s.seqPtr(top), 1)
			return nil
		}
	}
}

// Pop removes and returns the top element, returning ErrEmpty if the
// stack has nothing to remove.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	for {
		top := atomic.LoadUint64(s.topPtr())
		if top == 0 {
			return zero, ErrEmpty
		}
		target := top - 1

		spins := 0
		for atomic.LoadUint64(s.seqPtr(target)) == 0 && spins < stackSpinLimit {
			runtime.Gosched()
			spins++
		}

		v := *s.dataPtr(target)
		if atomic.CompareAndSwapUint64(s.topPtr(), top, target) {
			atomic.StoreUint64(s.seqPtr(target), 0)
			return v, nil
		}
	}
}

// Size returns the stack's current element count.
func (s *Stack[T]) Size() uint64 {
	return atomic.LoadUint64(s.topPtr())
}
