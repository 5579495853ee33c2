package container

import (
	"sync/atomic"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/segment"
)

// Queue is a bounded multi-producer/multi-consumer FIFO. Enqueue and
// dequeue never block; they complete, or return ErrFull/ErrEmpty
// synchronously. Each slot carries its own atomic sequence counter
// (Vyukov's bounded MPMC queue design) so a consumer can never observe a
// slot a producer has reserved but not yet finished writing, closing off
// the torn-read risk a plain head/tail variant would have. The backing
// ring holds capacity slots, but only capacity-1 are ever usable at once
// — one slot is always kept empty so head==tail unambiguously means
// empty, matching the declared capacity's semantics exactly.
type Queue[T any] struct {
	data     []byte
	capacity uint64
	stride   uint64 // Bytes per slot: 8-byte sequence counter + padded record.
}

// OpenQueue creates or attaches to a named queue. Pass capacity 0 to
// attach to an existing queue without resizing it.
func OpenQueue[T any](seg *segment.Segment, name string, capacity uint32) (*Queue[T], error) {
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))
	stride := uint64(8 + padTo8(uintptr(elemSize)))

	data, entry, created, err := resolve(seg, name, capacity, elemSize, wire.QueueHeaderSize, func(c uint32) uint64 {
		return uint64(c) * stride
	})
	if err != nil {
		return nil, err
	}

	q := &Queue[T]{data: data, capacity: uint64(entry.ElemCount), stride: stride}
	if created {
		wire.PutUint64(data, wire.QueueHeaderHeadOff, 0)
		wire.PutUint64(data, wire.QueueHeaderTailOff, 0)
		wire.PutUint64(data, wire.QueueHeaderCapacityOff, q.capacity)
		for i := uint64(0); i < q.capacity; i++ {
			atomic.StoreUint64(q.seqPtr(i), i)
		}
	}
	return q, nil
}

func (q *Queue[T]) payload() []byte  { return q.data[wire.QueueHeaderSize:] }
func (q *Queue[T]) slotOffset(i uint64) uint64 { return (i % q.capacity) * q.stride }

func (q *Queue[T]) seqPtr(i uint64) *uint64 {
	return (*uint64)(unsafe.Pointer(&q.payload()[q.slotOffset(i)]))
}

func (q *Queue[T]) dataPtr(i uint64) *T {
	return (*T)(unsafe.Pointer(&q.payload()[q.slotOffset(i)+8]))
}

func (q *Queue[T]) headPtr() *uint64 { return (*uint64)(unsafe.Pointer(&q.data[wire.QueueHeaderHeadOff])) }
func (q *Queue[T]) tailPtr() *uint64 { return (*uint64)(unsafe.Pointer(&q.data[wire.QueueHeaderTailOff])) }

// Capacity returns the queue's fixed capacity.
func (q *Queue[T]) Capacity() uint64 { return q.capacity }

// Push enqueues v, returning ErrFull if the queue has no free slot. Only
// capacity-1 elements are ever held at once, so head==tail is
// unambiguously empty.
func (q *Queue[T]) Push(v T) error {
	usable := q.capacity - 1
	pos := atomic.LoadUint64(q.tailPtr())
	for {
		if pos-atomic.LoadUint64(q.headPtr()) >= usable {
			return ErrFull
		}
		seq := atomic.LoadUint64(q.seqPtr(pos))
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(q.tailPtr(), pos, pos+1) {
				*q.dataPtr(pos) = v
				atomic.StoreUint64(q.seqPtr(pos), pos+1)
				return nil
			}
			pos = atomic.LoadUint64(q.tailPtr())
		case diff < 0:
			return ErrFull
		default:
			pos = atomic.LoadUint64(q.tailPtr())
		}
	}
}

// Pop dequeues the oldest element, returning ErrEmpty if the queue has
// nothing to remove.
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	pos := atomic.LoadUint64(q.headPtr())
	for {
		seq := atomic.LoadUint64(q.seqPtr(pos))
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(q.headPtr(), pos, pos+1) {
				v := *q.dataPtr(pos)
				atomic.StoreUint64(q.seqPtr(pos), pos+q.capacity)
				return v, nil
			}
			pos = atomic.LoadUint64(q.headPtr())
		case diff < 0:
			return zero, ErrEmpty
		default:
			pos = atomic.LoadUint64(q.headPtr())
		}
	}
}

// Size returns an approximate element count; under concurrent access it
// may be stale the instant it's read.
func (q *Queue[T]) Size() uint64 {
	tail := atomic.LoadUint64(q.tailPtr())
	head := atomic.LoadUint64(q.headPtr())
	if tail < head {
		return 0
	}
	return tail - head
}

func padTo8(n uintptr) uintptr {
	return (n + 7) &^ 7
}
