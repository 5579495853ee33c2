// Package zeroipc is the convenience entry point for the rest of this
// module: it opens or creates a named segment and hands back typed
// container and synchronization-primitive handles over it, so callers
// rarely need to import pkg/segment directly.
package zeroipc

import (
	"github.com/queelius/zeroipc/pkg/container"
	"github.com/queelius/zeroipc/pkg/logger"
	"github.com/queelius/zeroipc/pkg/options"
	"github.com/queelius/zeroipc/pkg/segment"
	"github.com/queelius/zeroipc/pkg/syncprim"
)

// Instance is a process-local handle onto one named shared-memory
// segment, along with the options it was opened with.
type Instance struct {
	seg     *segment.Segment
	options *options.Options
}

// New creates or attaches to a segment named service, sized size bytes,
// applying any functional options over the package defaults.
func New(service string, size uint64, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	seg, err := segment.Create(service, size, &segment.Config{Options: &defaultOpts, Logger: log})
	if err != nil {
		return nil, err
	}

	return &Instance{seg: seg, options: &defaultOpts}, nil
}

// Attach opens an existing segment named service without creating it.
func Attach(service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	seg, err := segment.Open(service, &segment.Config{Options: &defaultOpts, Logger: log})
	if err != nil {
		return nil, err
	}

	return &Instance{seg: seg, options: &defaultOpts}, nil
}

// Segment returns the underlying segment handle, for callers that need
// direct access to Find, Allocate, or the table directory.
func (i *Instance) Segment() *segment.Segment { return i.seg }

// Close detaches this instance's handle on its segment.
func (i *Instance) Close() error {
	return i.seg.Close()
}

// OpenArray opens a named fixed-length array within inst's segment.
func OpenArray[T any](inst *Instance, name string, capacity uint32) (*container.Array[T], error) {
	return container.OpenArray[T](inst.seg, name, capacity)
}

// OpenQueue opens a named bounded MPMC queue within inst's segment.
func OpenQueue[T any](inst *Instance, name string, capacity uint32) (*container.Queue[T], error) {
	return container.OpenQueue[T](inst.seg, name, capacity)
}

// OpenStack opens a named bounded lock-free stack within inst's segment.
func OpenStack[T any](inst *Instance, name string, capacity uint32) (*container.Stack[T], error) {
	return container.OpenStack[T](inst.seg, name, capacity)
}

// OpenRing opens a named single-producer/single-consumer ring buffer
// within inst's segment.
func OpenRing[T any](inst *Instance, name string, capacity uint32) (*container.Ring[T], error) {
	return container.OpenRing[T](inst.seg, name, capacity)
}

// OpenPool opens a named fixed-block free-list allocator within inst's
// segment.
func OpenPool[T any](inst *Instance, name string, capacity uint32) (*container.Pool[T], error) {
	return container.OpenPool[T](inst.seg, name, capacity)
}

// OpenHashMap opens a named open-addressing hash map within inst's
// segment.
func OpenHashMap[K comparable, V any](inst *Instance, name string, capacity uint32, maxLoadFactor float64) (*container.HashMap[K, V], error) {
	return container.OpenHashMap[K, V](inst.seg, name, capacity, maxLoadFactor)
}

// OpenSet opens a named hash set within inst's segment.
func OpenSet[K comparable](inst *Instance, name string, capacity uint32, maxLoadFactor float64) (*container.Set[K], error) {
	return container.OpenSet[K](inst.seg, name, capacity, maxLoadFactor)
}

// OpenSemaphore opens a named counting semaphore within inst's segment.
func OpenSemaphore(inst *Instance, name string, initial, max uint64) (*syncprim.Semaphore, error) {
	return syncprim.OpenSemaphore(inst.seg, name, initial, max)
}

// OpenLatch opens a named countdown latch within inst's segment.
func OpenLatch(inst *Instance, name string, count uint64) (*syncprim.Latch, error) {
	return syncprim.OpenLatch(inst.seg, name, count)
}

// OpenBarrier opens a named cyclic barrier within inst's segment.
func OpenBarrier(inst *Instance, name string, parties uint64) (*syncprim.Barrier, error) {
	return syncprim.OpenBarrier(inst.seg, name, parties)
}
