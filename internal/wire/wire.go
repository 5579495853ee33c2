// Package wire implements the fixed-offset, little-endian binary layout
// shared by every process attached to a segment. Every field is read and
// written at an explicit byte offset with encoding/binary's LittleEndian
// helpers rather than through reflection or struct tags, so the layout on
// disk is exactly what this file says it is, independent of Go's struct
// padding rules and portable to peers written in other languages.
package wire

import "encoding/binary"

// Magic is the segment header's identifying tag, the four ASCII bytes
// "ZIPM" read as a 32-bit little-endian constant.
const Magic uint32 = 0x5A49504D

// Version is the format version this implementation writes and requires
// on open.
const Version uint32 = 1

// Segment header layout. Fixed at the front of every segment.
//
// Offset 12 was left unassigned in the original design notes but the
// header narrative calls for a reference counter among its fields; this
// implementation uses offset 12 as the atomic attach/detach reference
// counter rather than leaving it reserved. See DESIGN.md for the reasoning.
const (
	SegHeaderMagicOff          = 0  // u32
	SegHeaderVersionOff        = 4  // u32
	SegHeaderLiveEntryCountOff = 8  // u32
	SegHeaderRefCountOff       = 12 // u32, attach/detach reference counter
	SegHeaderTotalSizeOff      = 16 // u64
	SegHeaderNextCursorOff     = 24 // u64
	SegHeaderSize              = 32
)

// Table header layout. Immediately follows the segment header.
const (
	TableHeaderCapacityOff = 0 // u32
	TableHeaderBusyOff     = 4 // u32, CAS mutual-exclusion flag
	TableHeaderReservedOff = 8 // u64, always zero
	TableHeaderSize        = 16
)

// Table entry layout. Table entries begin immediately after the
// TableHeaderSize-byte table header, one EntrySize block per entry.
const (
	EntryNameOff      = 0  // 32-byte null-padded name
	EntryNameLen      = 32
	EntryOffsetOff    = 32 // u64, byte offset from segment base
	EntrySizeOff      = 40 // u64, total size in bytes
	EntryElemSizeOff  = 48 // u32
	EntryElemCountOff = 52 // u32
	EntryActiveOff    = 56 // u32, 0 or 1
	EntryReservedOff  = 60 // u32, always zero
	EntrySize         = 64
)

// MaxNameLen is the largest name, excluding the terminator, that fits in
// an entry's fixed name field. A name of MaxNameLen bytes plus a NUL
// terminator exactly fills it.
const MaxNameLen = EntryNameLen - 1

// Container header layouts. Each container's header sits at the entry's
// table offset; its payload follows immediately.
const (
	ArrayHeaderCapacityOff = 0 // u64
	ArrayHeaderSize        = 8

	QueueHeaderHeadOff     = 0  // u64
	QueueHeaderTailOff     = 8  // u64
	QueueHeaderCapacityOff = 16 // u64
	QueueHeaderSize        = 24

	StackHeaderTopOff      = 0 // u64
	StackHeaderCapacityOff = 8 // u64
	StackHeaderSize        = 16

	RingHeaderWritePosOff = 0  // u64
	RingHeaderReadPosOff  = 8  // u64
	RingHeaderCapacityOff = 16 // u32
	RingHeaderPadOff      = 20 // u32
	RingHeaderSize        = 24

	MapHeaderBucketCountOff    = 0  // u64
	MapHeaderSizeOff           = 8  // u64
	MapHeaderVersionOff        = 16 // u64
	MapHeaderMaxLoadFactorOff  = 24 // u32 (IEEE-754 bits)
	MapHeaderPadOff            = 28 // u32
	MapHeaderSize              = 32
	MapBucketStateOff          = 0 // u32: empty/occupied/tombstone (the key starts at byte 8)
	MapBucketStateEmpty        = 0
	MapBucketStateOccupied     = 1
	MapBucketStateTombstone    = 2

	PoolHeaderCapacityOff  = 0  // u64
	PoolHeaderFreeHeadOff  = 8  // u64
	PoolHeaderAllocatedOff = 16 // u64
	PoolHeaderSize         = 24

	// PoolFreeListNone marks the end of the pool's free list; no slot has
	// this value as a valid index since capacity never reaches 2^64-1.
	PoolFreeListNone = ^uint64(0)

	// SemaphoreHeaderSize, LatchHeaderSize, BarrierHeaderSize: {count,
	// max (semaphore only), waiting} as u64 triples/pairs. Kept in this
	// package so the syncprim package reads and writes them the same way
	// containers read and write theirs.
	SemaphoreHeaderCountOff   = 0  // u64, current permit count
	SemaphoreHeaderMaxOff     = 8  // u64, configured maximum
	SemaphoreHeaderWaitingOff = 16 // u64, waiter count hint
	SemaphoreHeaderSize       = 24

	LatchHeaderCountOff   = 0 // u64, remaining count
	LatchHeaderWaitingOff = 8 // u64, waiter count hint
	LatchHeaderSize       = 16

	BarrierHeaderPartiesOff = 0  // u64, configured party count
	BarrierHeaderArrivedOff = 8  // u64, arrived count this generation
	BarrierHeaderGenOff     = 16 // u64, generation counter
	BarrierHeaderSize       = 24
)

func PutFloat32Bits(b []byte, off int, v uint32) { PutUint32(b, off, v) }
func GetFloat32Bits(b []byte, off int) uint32    { return GetUint32(b, off) }

func PutUint32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:off+4], v) }
func GetUint32(b []byte, off int) uint32    { return binary.LittleEndian.Uint32(b[off : off+4]) }
func PutUint64(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:off+8], v) }
func GetUint64(b []byte, off int) uint64    { return binary.LittleEndian.Uint64(b[off : off+8]) }

// PutName writes name null-padded into the EntryNameLen-byte field at off.
// The caller must have already validated len(name) <= MaxNameLen.
func PutName(b []byte, off int, name string) {
	n := copy(b[off:off+EntryNameLen], name)
	for i := off + n; i < off+EntryNameLen; i++ {
		b[i] = 0
	}
}

// GetName reads a null-padded name field back out as a Go string.
func GetName(b []byte, off int) string {
	field := b[off : off+EntryNameLen]
	n := 0
	for n < len(field) && field[n] != 0 {
		n++
	}
	return string(field[:n])
}
