// Package testmode reads the environment variables that govern test
// pacing: ZEROIPC_TEST_MODE selects how hard the stress and concurrency
// suites push, and CI multiplies timeouts for slower shared runners.
// Neither variable affects runtime semantics, only test iteration counts
// and deadlines.
package testmode

import "os"

// Mode selects how aggressively the stress suites run.
type Mode string

const (
	Fast   Mode = "fast"
	Medium Mode = "medium"
	Stress Mode = "stress"
	Interop Mode = "interop"
)

// Current reads ZEROIPC_TEST_MODE, defaulting to Fast when unset or
// unrecognized.
func Current() Mode {
	switch Mode(os.Getenv("ZEROIPC_TEST_MODE")) {
	case Medium:
		return Medium
	case Stress:
		return Stress
	case Interop:
		return Interop
	default:
		return Fast
	}
}

// Iterations returns how many times a stress loop should run for the
// current mode.
func Iterations() int {
	switch Current() {
	case Medium:
		return 1_000
	case Stress:
		return 100_000
	case Interop:
		return 100
	default:
		return 100
	}
}

// Producers and Consumers return the fan-out width for MPMC stress tests
// under the current mode.
func Producers() int {
	if Current() == Stress {
		return 20
	}
	return 4
}

func Consumers() int { return Producers() }

// TimeoutMultiplier scales test deadlines up when running in CI, where
// shared runners are slower and noisier than a developer's machine.
func TimeoutMultiplier() int {
	if os.Getenv("CI") != "" {
		return 5
	}
	return 1
}
