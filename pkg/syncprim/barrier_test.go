package syncprim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBarrierReleasesAllPartiesTogether(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	b, err := OpenBarrier(seg, "barrier", 4)
	require.NoError(t, err)
	require.EqualValues(t, 4, b.Parties())

	var wg sync.WaitGroup
	arrived := make(chan int, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			require.NoError(t, b.Arrive(context.Background()))
			arrived <- id
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("barrier never released all parties")
	}
	require.Len(t, arrived, 4)
}

func TestBarrierCyclesAcrossGenerations(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	b, err := OpenBarrier(seg, "cyclic", 2)
	require.NoError(t, err)

	for gen := 0; gen < 3; gen++ {
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, b.Arrive(context.Background()))
			}()
		}
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("generation %d never released", gen)
		}
	}
}

func TestBarrierArriveTimeout(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	b, err := OpenBarrier(seg, "timeout", 2)
	require.NoError(t, err)

	err = b.ArriveTimeout(20 * time.Millisecond)
	require.Error(t, err)
}

func TestBarrierZeroPartiesRejected(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	_, err := OpenBarrier(seg, "zero", 0)
	require.Error(t, err)
}
