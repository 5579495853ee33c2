package options

import "time"

const (
	// DefaultTableCapacity is the number of named entries a segment's
	// table can hold when no capacity is specified at creation.
	DefaultTableCapacity uint32 = 64

	// MinTableCapacity is the smallest table capacity Create will accept.
	MinTableCapacity uint32 = 1

	// MaxTableCapacity is the largest table capacity Create will accept.
	MaxTableCapacity uint32 = 4096

	// DefaultAlignment is the allocation alignment, in bytes, applied when
	// a caller doesn't request one explicitly. Matches the natural
	// alignment of the widest scalar types used by the container package.
	DefaultAlignment uint32 = 8

	// MinAlignment is the smallest alignment Create will accept.
	MinAlignment uint32 = 1

	// MaxAlignment is the largest alignment Create will accept.
	MaxAlignment uint32 = 4096

	// DefaultOpenTimeout bounds how long table operations spin-wait on a
	// contended busy flag before returning a timeout error.
	DefaultOpenTimeout = 5 * time.Second
)

// Holds the default configuration settings for a new segment.
var defaultOptions = Options{
	TableOptions:     &tableOptions{Capacity: DefaultTableCapacity},
	DefaultAlignment: DefaultAlignment,
	UnlinkOnClose:    false,
	OpenTimeout:      DefaultOpenTimeout,
}

func NewDefaultOptions() Options {
	opts := defaultOptions
	tableCopy := *defaultOptions.TableOptions
	opts.TableOptions = &tableCopy
	return opts
}
