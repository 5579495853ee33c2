package errors

// SegmentError is a specialized error type for segment-layer operations:
// create, open, attach, detach, unlink, allocate, at. It embeds baseError
// to inherit chaining and structured details, and adds segment-specific
// fields that pinpoint exactly which segment and byte range were involved.
type SegmentError struct {
	*baseError
	segmentName string // Name of the shared-memory segment involved.
	offset      uint64 // Byte offset within the segment, if applicable.
	size        uint64 // Size in bytes relevant to the failure (requested or actual).
}

// NewSegmentError creates a new segment-specific error.
func NewSegmentError(err error, code ErrorCode, msg string) *SegmentError {
	return &SegmentError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the SegmentError type.
func (se *SegmentError) WithMessage(msg string) *SegmentError {
	se.baseError.WithMessage(msg)
	return se
}

// WithCode sets the error code while preserving the SegmentError type.
func (se *SegmentError) WithCode(code ErrorCode) *SegmentError {
	se.baseError.WithCode(code)
	return se
}

// WithDetail adds contextual information while maintaining the SegmentError type.
func (se *SegmentError) WithDetail(key string, value any) *SegmentError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithSegmentName records which named segment was involved.
func (se *SegmentError) WithSegmentName(name string) *SegmentError {
	se.segmentName = name
	return se
}

// WithOffset records the byte offset within the segment where the error occurred.
func (se *SegmentError) WithOffset(offset uint64) *SegmentError {
	se.offset = offset
	return se
}

// WithSize records the size in bytes relevant to the failure.
func (se *SegmentError) WithSize(size uint64) *SegmentError {
	se.size = size
	return se
}

// SegmentName returns the name of the segment involved in the error.
func (se *SegmentError) SegmentName() string {
	return se.segmentName
}

// Offset returns the byte offset within the segment where the error occurred.
func (se *SegmentError) Offset() uint64 {
	return se.offset
}

// Size returns the size in bytes relevant to the failure.
func (se *SegmentError) Size() uint64 {
	return se.size
}
