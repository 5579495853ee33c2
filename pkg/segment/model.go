// Package segment implements the named shared-memory region that every
// ZeroIPC container is built on: it owns the mapping, the reference
// counter, the allocation cursor, and the table directory that resolves
// names to offsets.
package segment

import (
	"sync/atomic"
	"unsafe"

	"github.com/queelius/zeroipc/internal/wire"
	"github.com/queelius/zeroipc/pkg/options"
	"go.uber.org/zap"
)

// Segment is a process-local handle onto a mapped shared-memory region.
// Multiple processes, and multiple Segment values within one process, can
// hold independent handles onto the same underlying mapping; Close drops
// this handle's reference without necessarily tearing down the mapping
// for other holders.
type Segment struct {
	name    string             // The shared-memory object's name, as passed to Create/Open.
	data    []byte             // The mapped region, sized to the segment's total byte size.
	file    shmFile            // The OS handle backing the mapping.
	table   *Table             // The table directory embedded at the front of the segment.
	options *options.Options   // Configuration applied when this segment was created or opened.
	log     *zap.SugaredLogger // Structured logger scoped to this segment.
	closed  atomic.Bool        // Guards against double-Close.
}

// Config holds the parameters needed to create or open a Segment.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// refCounterPtr returns a pointer into the mapped header's reference-count
// field for use with sync/atomic's Add/CompareAndSwap.
func (s *Segment) refCounterPtr() *uint32 {
	return (*uint32)(unsafe.Pointer(&s.data[wire.SegHeaderRefCountOff]))
}

// cursorPtr returns a pointer into the mapped header's next-allocation
// cursor for atomic bump allocation.
func (s *Segment) cursorPtr() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.data[wire.SegHeaderNextCursorOff]))
}

// liveEntryCountPtr returns a pointer into the mapped header's live table
// entry counter.
func (s *Segment) liveEntryCountPtr() *uint32 {
	return (*uint32)(unsafe.Pointer(&s.data[wire.SegHeaderLiveEntryCountOff]))
}
