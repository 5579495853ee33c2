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

// Unbounded, passed as max to OpenSemaphore, makes the upper bound a
// no-op: Release never fails with container.ErrOverflow regardless of
// how many permits are outstanding. This is how the spec's "optional"
// upper bound is represented, since the wire header has no separate
// has-max flag.
const Unbounded = ^uint64(0)

// Semaphore is a shared counting semaphore with an optional upper bound.
// TryAcquire is non-blocking; Acquire and AcquireTimeout spin with a
// jittered backoff while contended.
type Semaphore struct {
	data []byte
}

// OpenSemaphore creates or attaches to a named semaphore. initial must be
// non-negative and no greater than max; violating either is an
// invalid-argument error raised at construction. Pass Unbounded as max
// for a semaphore with no upper bound on Release.
func OpenSemaphore(seg *segment.Segment, name string, initial, max uint64) (*Semaphore, error) {
	if initial > max {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "semaphore initial exceeds maximum").
			WithField("initial").WithProvided(initial).WithExpected(max)
	}

	data, _, created, err := resolveFixed(seg, name, wire.SemaphoreHeaderSize)
	if err != nil {
		return nil, err
	}

	s := &Semaphore{data: data}
	if created {
		wire.PutUint64(data, wire.SemaphoreHeaderCountOff, initial)
		wire.PutUint64(data, wire.SemaphoreHeaderMaxOff, max)
		wire.PutUint64(data, wire.SemaphoreHeaderWaitingOff, 0)
	}
	return s, nil
}

func (s *Semaphore) countPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.data[wire.SemaphoreHeaderCountOff]))
}
func (s *Semaphore) maxPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.data[wire.SemaphoreHeaderMaxOff]))
}
func (s *Semaphore) waitingPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.data[wire.SemaphoreHeaderWaitingOff]))
}

// Max returns the semaphore's configured maximum permit count.
func (s *Semaphore) Max() uint64 { return atomic.LoadUint64(s.maxPtr()) }

// Available returns the current permit count.
func (s *Semaphore) Available() uint64 { return atomic.LoadUint64(s.countPtr()) }

// TryAcquire takes one permit without blocking, returning false if none
// are available.
func (s *Semaphore) TryAcquire() bool {
	for {
		c := atomic.LoadUint64(s.countPtr())
		if c == 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(s.countPtr(), c, c-1) {
			return true
		}
	}
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire(ctx context.Context) error {
	atomic.AddUint64(s.waitingPtr(), 1)
	defer atomic.AddUint64(s.waitingPtr(), ^uint64(0))

	b := newBackoff()
	for {
		if s.TryAcquire() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		b.sleep()
	}
}

// AcquireTimeout blocks until a permit is available or the given
// duration elapses, in which case it returns container.ErrTimeout.
func (s *Semaphore) AcquireTimeout(d time.Duration) error {
	atomic.AddUint64(s.waitingPtr(), 1)
	defer atomic.AddUint64(s.waitingPtr(), ^uint64(0))

	deadline := time.Now().Add(d)
	b := newBackoff()
	for {
		if s.TryAcquire() {
			return nil
		}
		if time.Now().After(deadline) {
			return container.ErrTimeout
		}
		b.sleep()
	}
}

// Release returns one permit, failing with container.ErrOverflow if doing
// so would exceed the configured maximum. A semaphore opened with
// max == Unbounded never fails this way.
func (s *Semaphore) Release() error {
	for {
		c := atomic.LoadUint64(s.countPtr())
		max := atomic.LoadUint64(s.maxPtr())
		if max != Unbounded && c >= max {
			return container.ErrOverflow
		}
		if atomic.CompareAndSwapUint64(s.countPtr(), c, c+1) {
			return nil
		}
	}
}

// Waiting returns an approximate count of goroutines currently blocked
// in Acquire or AcquireTimeout.
func (s *Semaphore) Waiting() uint64 { return atomic.LoadUint64(s.waitingPtr()) }

// AcquireGuard blocks until a permit is available, then returns a Guard
// whose Close releases it.
func (s *Semaphore) AcquireGuard(ctx context.Context) (*Guard, error) {
	if err := s.Acquire(ctx); err != nil {
		return nil, err
	}
	return &Guard{release: s.Release}, nil
}
