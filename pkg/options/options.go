// Package options provides data structures and functions for configuring
// ZeroIPC segments and tables. It defines the parameters that control
// table directory sizing, allocation alignment, and segment lifecycle
// behavior, all applied through the functional-options pattern.
package options

import "time"

// Defines configurable parameters for the table directory embedded at the
// front of every segment. The table maps names to offsets and is sized
// once, at creation time, since it lives at a fixed location in the
// segment and cannot be grown without relocating every existing entry.
type tableOptions struct {
	// Capacity is the maximum number of named entries the table can hold.
	// Exceeding it returns a table-full error rather than growing the
	// table, since growing would invalidate offsets already handed out
	// to other processes.
	//
	//  - Default: 64
	//  - Minimum: 1
	//  - Maximum: 4096
	Capacity uint32 `json:"capacity"`
}

// Defines the configuration parameters for a ZeroIPC segment.
// It provides control over table sizing, allocation alignment, and
// what happens to the underlying shared-memory object when the last
// handle to it is closed.
type Options struct {
	// TableOptions configures the fixed-size entry table stored at the
	// front of the segment.
	TableOptions *tableOptions `json:"tableOptions"`

	// DefaultAlignment is the byte alignment applied to allocations that
	// don't request one explicitly. Must be a power of two.
	//
	// Default: 8
	DefaultAlignment uint32 `json:"defaultAlignment"`

	// UnlinkOnClose controls whether Close also unlinks the segment's
	// underlying shared-memory object. Set to false when other processes
	// are expected to still be attached.
	//
	// Default: false
	UnlinkOnClose bool `json:"unlinkOnClose"`

	// OpenTimeout bounds how long Table operations that take the table
	// lock (Add, Erase) spin-wait on another holder before giving up.
	// Find takes no lock and never waits.
	//
	// Default: 5s
	OpenTimeout time.Duration `json:"openTimeout"`
}

// OptionFunc is a function type that modifies a segment's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.TableOptions = opts.TableOptions
		o.DefaultAlignment = opts.DefaultAlignment
		o.UnlinkOnClose = opts.UnlinkOnClose
		o.OpenTimeout = opts.OpenTimeout
	}
}

// Sets the maximum number of named entries the segment's table can hold.
func WithTableCapacity(capacity uint32) OptionFunc {
	return func(o *Options) {
		if capacity >= MinTableCapacity && capacity <= MaxTableCapacity {
			o.TableOptions.Capacity = capacity
		}
	}
}

// Sets the default allocation alignment, in bytes, for entries that don't
// request one explicitly.
func WithDefaultAlignment(alignment uint32) OptionFunc {
	return func(o *Options) {
		if alignment >= MinAlignment && alignment <= MaxAlignment && isPowerOfTwo(alignment) {
			o.DefaultAlignment = alignment
		}
	}
}

// Sets whether Close also unlinks the underlying shared-memory object.
func WithUnlinkOnClose(unlink bool) OptionFunc {
	return func(o *Options) {
		o.UnlinkOnClose = unlink
	}
}

// Sets how long table operations spin-wait on a contended busy flag.
func WithOpenTimeout(timeout time.Duration) OptionFunc {
	return func(o *Options) {
		if timeout > 0 {
			o.OpenTimeout = timeout
		}
	}
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
