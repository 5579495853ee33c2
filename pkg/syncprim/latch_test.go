package syncprim

import (
	"context"
	"testing"
	"time"

	"github.com/queelius/zeroipc/pkg/container"
	"github.com/stretchr/testify/require"
)

func TestLatchCountDownAndWait(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	l, err := OpenLatch(seg, "latch", 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, l.Remaining())

	released := make(chan struct{})
	go func() {
		require.NoError(t, l.Wait(context.Background()))
		close(released)
	}()

	l.CountDown()
	l.CountDown()
	select {
	case <-released:
		t.Fatal("latch released before count reached zero")
	case <-time.After(20 * time.Millisecond):
	}

	l.CountDown()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("latch did not release at zero")
	}

	l.CountDown() // Counting down past zero has no further effect.
	require.EqualValues(t, 0, l.Remaining())
}

func TestLatchWaitTimeout(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	l, err := OpenLatch(seg, "timeout", 1)
	require.NoError(t, err)

	err = l.WaitTimeout(20 * time.Millisecond)
	require.ErrorIs(t, err, container.ErrTimeout)
}

func TestLatchZeroCountRejected(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	_, err := OpenLatch(seg, "zero", 0)
	require.Error(t, err)
}
