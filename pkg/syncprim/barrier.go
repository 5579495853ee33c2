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

// Barrier holds parties goroutines (possibly across processes) at Arrive
// until all of them have called it, then releases every one and resets
// for the next generation.
type Barrier struct {
	data []byte
}

// OpenBarrier creates or attaches to a named barrier requiring parties
// arrivals per generation.
func OpenBarrier(seg *segment.Segment, name string, parties uint64) (*Barrier, error) {
	if parties == 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "barrier parties must be positive").
			WithField("parties").WithProvided(parties)
	}

	data, _, created, err := resolveFixed(seg, name, wire.BarrierHeaderSize)
	if err != nil {
		return nil, err
	}

	b := &Barrier{data: data}
	if created {
		wire.PutUint64(data, wire.BarrierHeaderPartiesOff, parties)
		wire.PutUint64(data, wire.BarrierHeaderArrivedOff, 0)
		wire.PutUint64(data, wire.BarrierHeaderGenOff, 0)
	}
	return b, nil
}

func (b *Barrier) partiesPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&b.data[wire.BarrierHeaderPartiesOff]))
}
func (b *Barrier) arrivedPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&b.data[wire.BarrierHeaderArrivedOff]))
}
func (b *Barrier) genPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&b.data[wire.BarrierHeaderGenOff]))
}

// Parties returns the configured arrival count per generation.
func (b *Barrier) Parties() uint64 { return atomic.LoadUint64(b.partiesPtr()) }

// Arrive blocks until every party has called Arrive for the current
// generation, then returns for all of them together.
func (b *Barrier) Arrive(ctx context.Context) error {
	gen := atomic.LoadUint64(b.genPtr())
	parties := atomic.LoadUint64(b.partiesPtr())

	if atomic.AddUint64(b.arrivedPtr(), 1) == parties {
		atomic.StoreUint64(b.arrivedPtr(), 0)
		atomic.AddUint64(b.genPtr(), 1)
		return nil
	}

	bo := newBackoff()
	for atomic.LoadUint64(b.genPtr()) == gen {
		if err := ctx.Err(); err != nil {
			return err
		}
		bo.sleep()
	}
	return nil
}

// ArriveTimeout is Arrive bounded by a relative deadline, returning
// container.ErrTimeout if the generation hasn't advanced in time.
func (b *Barrier) ArriveTimeout(d time.Duration) error {
	gen := atomic.LoadUint64(b.genPtr())
	parties := atomic.LoadUint64(b.partiesPtr())

	if atomic.AddUint64(b.arrivedPtr(), 1) == parties {
		atomic.StoreUint64(b.arrivedPtr(), 0)
		atomic.AddUint64(b.genPtr(), 1)
		return nil
	}

	deadline := time.Now().Add(d)
	bo := newBackoff()
	for atomic.LoadUint64(b.genPtr()) == gen {
		if time.Now().After(deadline) {
			return container.ErrTimeout
		}
		bo.sleep()
	}
	return nil
}
