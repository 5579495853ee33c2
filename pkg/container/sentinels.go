package container

import "errors"

// Steady-state container conditions are reported as sentinel values
// comparable with errors.Is, not as the typed error hierarchy in
// pkg/errors: full, empty, and timeout represent normal operating
// conditions, not configuration or API misuse.
var (
	// ErrFull is returned by Push/Acquire when a bounded structure has no
	// remaining capacity.
	ErrFull = errors.New("container: full")

	// ErrEmpty is returned by Pop when a structure has nothing to remove.
	ErrEmpty = errors.New("container: empty")

	// ErrTimeout is returned by a sync primitive's timed acquire when the
	// deadline elapses before the acquire succeeds.
	ErrTimeout = errors.New("container: timed out waiting to acquire")

	// ErrOverflow is returned by a semaphore release that would push the
	// permit count past its configured maximum.
	ErrOverflow = errors.New("container: release would exceed configured maximum")
)
