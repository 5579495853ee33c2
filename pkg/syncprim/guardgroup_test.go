package syncprim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardGroupCloseAllReleasesEveryGuard(t *testing.T) {
	var order []int
	var group GuardGroup
	for i := 0; i < 3; i++ {
		i := i
		group.Add(&Guard{release: func() error { order = append(order, i); return nil }})
	}

	require.NoError(t, group.CloseAll())
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestGuardGroupCloseAllAggregatesFailures(t *testing.T) {
	errA := errors.New("guard a failed")
	errC := errors.New("guard c failed")

	var group GuardGroup
	released := 0
	group.Add(&Guard{release: func() error { return errA }})
	group.Add(&Guard{release: func() error { released++; return nil }})
	group.Add(&Guard{release: func() error { return errC }})

	err := group.CloseAll()
	require.Error(t, err)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errC)
	require.Equal(t, 1, released)
}
