// Package errors implements the error taxonomy used across this module:
// not-found, already-exists, create-conflict, size-mismatch,
// unsupported-version, corrupt-magic, invalid-argument, out-of-range,
// table-full, out-of-space, and allocation-overflow are all represented as
// typed errors here. The steady-state conditions full, empty, overflow, and
// timeout are deliberately NOT part of this hierarchy; they are reported as
// plain sentinel values by the container package instead, since they
// represent normal operating conditions rather than configuration or API
// misuse.
//
// The system recognizes that different layers fail in different ways and
// need different contextual information for diagnosis: a validation error
// needs to know which field failed, a segment error needs to know which
// segment and offset were involved, a table error needs to know which
// entry name and what operation. By capturing this domain-specific context
// at the point of failure, callers can make informed recovery decisions
// without parsing error strings.
package errors

import (
	stdErrors "errors"
	"os"
)

// IsValidationError checks if the given error is a ValidationError or contains one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsSegmentError determines if an error originated in the segment layer:
// create/open/attach/detach/allocate failures.
func IsSegmentError(err error) bool {
	var se *SegmentError
	return stdErrors.As(err, &se)
}

// IsTableError identifies errors from table operations: add, find, erase.
func IsTableError(err error) bool {
	var te *TableError
	return stdErrors.As(err, &te)
}

// IsContainerError identifies configuration/misuse errors from container
// construction (capacity mismatch on open, invalid capacity on create).
func IsContainerError(err error) bool {
	var ce *ContainerError
	return stdErrors.As(err, &ce)
}

// AsValidationError safely extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsSegmentError extracts SegmentError context from an error chain.
func AsSegmentError(err error) (*SegmentError, bool) {
	var se *SegmentError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsTableError extracts TableError context from an error chain.
func AsTableError(err error) (*TableError, bool) {
	var te *TableError
	if stdErrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// AsContainerError extracts ContainerError context from an error chain.
func AsContainerError(err error) (*ContainerError, bool) {
	var ce *ContainerError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't have specific codes.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if se, ok := AsSegmentError(err); ok {
		return se.Code()
	}
	if te, ok := AsTableError(err); ok {
		return te.Code()
	}
	if ce, ok := AsContainerError(err); ok {
		return ce.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}
	if se, ok := AsSegmentError(err); ok {
		if details := se.Details(); details != nil {
			return details
		}
	}
	if te, ok := AsTableError(err); ok {
		if details := te.Details(); details != nil {
			return details
		}
	}
	if ce, ok := AsContainerError(err); ok {
		if details := ce.Details(); details != nil {
			return details
		}
	}
	return make(map[string]any)
}

// ClassifyShmOpenError analyzes shm_open/open failures against the named
// shared-memory object and returns the appropriate typed SegmentError.
func ClassifyShmOpenError(err error, name string) error {
	if stdErrors.Is(err, os.ErrNotExist) {
		return NewSegmentError(err, ErrorCodeNotFound, "shared memory segment not found").
			WithSegmentName(name)
	}
	if stdErrors.Is(err, os.ErrPermission) || os.IsPermission(err) {
		return NewSegmentError(err, ErrorCodePermissionDenied, "insufficient permissions to open segment").
			WithSegmentName(name)
	}
	if stdErrors.Is(err, os.ErrExist) {
		return NewSegmentError(err, ErrorCodeCreateConflict, "segment already exists").
			WithSegmentName(name)
	}
	return NewSegmentError(err, ErrorCodeIO, "failed to open shared memory segment").
		WithSegmentName(name)
}
