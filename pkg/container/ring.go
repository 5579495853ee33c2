package container

import (
	"sync/atomic"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/segment"
)

// Ring is a bounded single-producer/single-consumer stream. write_pos and
// read_pos are monotonic counters that never wrap; only indexing into the
// backing array uses modulo capacity. Single-producer/single-consumer
// usage needs no per-slot sequence counter since only one goroutine ever
// writes or reads a given slot at a time.
type Ring[T any] struct {
	data     []byte
	capacity uint64
}

// OpenRing creates or attaches to a named ring.
func OpenRing[T any](seg *segment.Segment, name string, capacity uint32) (*Ring[T], error) {
	var zero T
	elemSize := uint32(unsafe.Sizeof(zero))

	data, entry, created, err := resolve(seg, name, capacity, elemSize, wire.RingHeaderSize, func(c uint32) uint64 {
		return uint64(c) * uint64(elemSize)
	})
	if err != nil {
		return nil, err
	}

	r := &Ring[T]{data: data, capacity: uint64(entry.ElemCount)}
	if created {
		wire.PutUint64(data, wire.RingHeaderWritePosOff, 0)
		wire.PutUint64(data, wire.RingHeaderReadPosOff, 0)
		wire.PutUint32(data, wire.RingHeaderCapacityOff, entry.ElemCount)
	}
	return r, nil
}

func (r *Ring[T]) payload() []byte { return r.data[wire.RingHeaderSize:] }

func (r *Ring[T]) writePosPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&r.data[wire.RingHeaderWritePosOff]))
}
func (r *Ring[T]) readPosPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&r.data[wire.RingHeaderReadPosOff]))
}

func (r *Ring[T]) slotPtr(pos uint64) *T {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	idx := pos % r.capacity
	return (*T)(unsafe.Pointer(&r.payload()[uint64(elemSize)*idx]))
}

// Capacity returns the ring's fixed capacity.
func (r *Ring[T]) Capacity() uint64 { return r.capacity }

// Len returns the number of unread records currently buffered.
func (r *Ring[T]) Len() uint64 {
	return atomic.LoadUint64(r.writePosPtr()) - atomic.LoadUint64(r.readPosPtr())
}

func (r *Ring[T]) free() uint64 { return r.capacity - r.Len() }

// Push appends one record, returning false if the ring is full.
func (r *Ring[T]) Push(v T) bool {
	if r.free() == 0 {
		return false
	}
	w := atomic.LoadUint64(r.writePosPtr())
	*r.slotPtr(w) = v
	atomic.StoreUint64(r.writePosPtr(), w+1)
	return true
}

// PushBulk appends as many of vs as fit, returning the count written.
func (r *Ring[T]) PushBulk(vs []T) int {
	n := 0
	for _, v := range vs {
		if !r.Push(v) {
			break
		}
		n++
	}
	return n
}

// PushOverwrite appends v, advancing read_pos to make room if the ring
// is full, discarding the oldest unread record.
func (r *Ring[T]) PushOverwrite(v T) {
	if r.free() == 0 {
		atomic.AddUint64(r.readPosPtr(), 1)
	}
	w := atomic.LoadUint64(r.writePosPtr())
	*r.slotPtr(w) = v
	atomic.StoreUint64(r.writePosPtr(), w+1)
}

// Pop removes and returns the oldest unread record.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	if r.Len() == 0 {
		return zero, false
	}
	rp := atomic.LoadUint64(r.readPosPtr())
	v := *r.slotPtr(rp)
	atomic.StoreUint64(r.readPosPtr(), rp+1)
	return v, true
}

// PopBulk removes up to len(buf) records into buf, returning the count
// removed.
func (r *Ring[T]) PopBulk(buf []T) int {
	n := 0
	for n < len(buf) {
		v, ok := r.Pop()
		if !ok {
			break
		}
		buf[n] = v
		n++
	}
	return n
}

// Peek reads up to len(buf) records starting offset records past
// read_pos, without consuming them.
func (r *Ring[T]) Peek(offset uint64, buf []T) int {
	avail := r.Len()
	if offset >= avail {
		return 0
	}
	rp := atomic.LoadUint64(r.readPosPtr())
	n := 0
	for n < len(buf) && uint64(n)+offset < avail {
		buf[n] = *r.slotPtr(rp + offset + uint64(n))
		n++
	}
	return n
}

// LastN reads up to the n most recently pushed records into buf without
// consuming them, oldest first within that window.
func (r *Ring[T]) LastN(n int, buf []T) int {
	avail := r.Len()
	if uint64(n) > avail {
		n = int(avail)
	}
	if n > len(buf) {
		n = len(buf)
	}
	start := avail - uint64(n)
	return r.Peek(start, buf[:n])
}

// Skip advances read_pos by count records without returning them,
// never past write_pos.
func (r *Ring[T]) Skip(count uint64) {
	avail := r.Len()
	if count > avail {
		count = avail
	}
	atomic.AddUint64(r.readPosPtr(), count)
}

// Clear discards every unread record.
func (r *Ring[T]) Clear() {
	w := atomic.LoadUint64(r.writePosPtr())
	atomic.StoreUint64(r.readPosPtr(), w)
}
