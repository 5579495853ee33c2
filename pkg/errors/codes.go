package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes cover failures that can occur across any part of the system.
const (
	// ErrorCodeIO represents failures in the underlying shared-memory syscalls
	// (shm_open, mmap, munmap, ftruncate) or other OS-level I/O.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents a caller-side violation of an API
	// contract: a name too long, a zero capacity, a negative count.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected failures that don't fit any
	// other category: assertion failures, invariant violations.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"

	// ErrorCodeUnsupportedPlatform indicates the current OS/arch lacks the
	// primitive (POSIX shm_open, 64-bit atomics) this operation requires.
	ErrorCodeUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM"
)

// Segment-specific error codes.
const (
	// ErrorCodeNotFound indicates Open was called on a segment name that
	// does not exist.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeCreateConflict indicates Create was called on a name that
	// already exists with a different size.
	ErrorCodeCreateConflict ErrorCode = "CREATE_CONFLICT"

	// ErrorCodePermissionDenied indicates insufficient permissions to
	// create, open, or unlink the named shared-memory object.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeSizeMismatch indicates a structure was opened with a
	// non-zero capacity that does not match the capacity it was created with.
	ErrorCodeSizeMismatch ErrorCode = "SIZE_MISMATCH"

	// ErrorCodeUnsupportedVersion indicates the segment's format version
	// does not match this implementation's expected version.
	ErrorCodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"

	// ErrorCodeCorruptMagic indicates the segment header's magic tag did
	// not match the expected ZIPM pattern.
	ErrorCodeCorruptMagic ErrorCode = "CORRUPT_MAGIC"

	// ErrorCodeAllocationOverflow indicates a requested allocation size or
	// alignment would overflow the 64-bit allocation cursor.
	ErrorCodeAllocationOverflow ErrorCode = "ALLOCATION_OVERFLOW"

	// ErrorCodeOutOfSpace indicates the segment has no remaining capacity
	// for the requested allocation.
	ErrorCodeOutOfSpace ErrorCode = "OUT_OF_SPACE"

	// ErrorCodeOutOfRange indicates an offset or index fell outside the
	// valid bounds of a segment or container.
	ErrorCodeOutOfRange ErrorCode = "OUT_OF_RANGE"
)

// Table-specific error codes.
const (
	// ErrorCodeAlreadyExists indicates Table.Add was called with a name
	// that maps to an already-active entry.
	ErrorCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrorCodeTableFull indicates the table's fixed entry array is
	// exhausted.
	ErrorCodeTableFull ErrorCode = "TABLE_FULL"
)

// Container-specific error codes. Steady-state conditions (full, empty,
// timeout, overflow) are NOT represented here; they are reported as
// sentinel values, not as this error hierarchy. These codes cover only
// the container misuse/configuration failures.
const (
	// ErrorCodeCapacityMismatch indicates a container was opened with a
	// capacity that does not match the one it was created with.
	ErrorCodeCapacityMismatch ErrorCode = "CAPACITY_MISMATCH"
)
