package syncprim

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/container"
	"github.com/queelius/zeroipc/pkg/errors"
	"github.com/queelius/zeroipc/pkg/segment"
)

// Latch is a shared one-shot countdown: Wait blocks until CountDown has
// been called count times, then every waiter is released and the latch
// never blocks again.
type Latch struct {
	data []byte
}

// OpenLatch creates or attaches to a named latch initialized to count.
func OpenLatch(seg *segment.Segment, name string, count uint64) (*Latch, error) {
	if count == 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "latch count must be positive").
			WithField("count").WithProvided(count)
	}

	data, _, created, err := resolveFixed(seg, name, wire.LatchHeaderSize)
	if err != nil {
		return nil, err
	}

	l := &Latch{data: data}
	if created {
		wire.PutUint64(data, wire.LatchHeaderCountOff, count)
		wire.PutUint64(data, wire.LatchHeaderWaitingOff, 0)
	}
	return l, nil
}

func (l *Latch) countPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&l.data[wire.LatchHeaderCountOff]))
}
func (l *Latch) waitingPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&l.data[wire.LatchHeaderWaitingOff]))
}

// Remaining returns the countdown's current value.
func (l *Latch) Remaining() uint64 { return atomic.LoadUint64(l.countPtr()) }

// CountDown decrements the latch, clamped at zero; counting down past
// zero has no further effect.
func (l *Latch) CountDown() {
	for {
		c := atomic.LoadUint64(l.countPtr())
		if c == 0 {
			return
		}
		if atomic.CompareAndSwapUint64(l.countPtr(), c, c-1) {
			return
		}
	}
}

// Wait blocks until the latch reaches zero.
func (l *Latch) Wait(ctx context.Context) error {
	atomic.AddUint64(l.waitingPtr(), 1)
	defer atomic.AddUint64(l.waitingPtr(), ^uint64(0))

	b := newBackoff()
	for atomic.LoadUint64(l.countPtr()) != 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.sleep()
	}
	return nil
}

// WaitTimeout blocks until the latch reaches zero or the given duration
// elapses, in which case it returns container.ErrTimeout.
func (l *Latch) WaitTimeout(d time.Duration) error {
	atomic.AddUint64(l.waitingPtr(), 1)
	defer atomic.AddUint64(l.waitingPtr(), ^uint64(0))

	deadline := time.Now().Add(d)
	b := newBackoff()
	for atomic.LoadUint64(l.countPtr()) != 0 {
		if time.Now().After(deadline) {
			return container.ErrTimeout
		}
		b.sleep()
	}
	return nil
}
