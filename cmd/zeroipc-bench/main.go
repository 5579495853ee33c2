// Command zeroipc-bench drives a fixed workload against a throwaway
// segment's queue and array containers and reports throughput. It is a
// developer tool, not a correctness test: it always creates a fresh,
// unlink-on-close segment so repeated runs never collide.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/queelius/zeroipc/pkg/container"
	"github.com/queelius/zeroipc/pkg/logger"
	"github.com/queelius/zeroipc/pkg/options"
	"github.com/queelius/zeroipc/pkg/segment"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		name        = flag.String("segment", "/zeroipc-bench", "name of the scratch segment to create")
		size        = flag.Uint64("size", 64<<20, "segment size in bytes")
		queueCap    = flag.Uint("queue-capacity", 4096, "queue capacity")
		producers   = flag.Int("producers", 4, "number of producer goroutines")
		consumers   = flag.Int("consumers", 4, "number of consumer goroutines")
		perProducer = flag.Int("per-producer", 100_000, "items pushed per producer")
	)
	flag.Parse()

	if err := run(*name, *size, uint32(*queueCap), *producers, *consumers, *perProducer); err != nil {
		fmt.Fprintf(os.Stderr, "zeroipc-bench: %v\n", err)
		os.Exit(1)
	}
}

func run(name string, size uint64, queueCap uint32, producers, consumers, perProducer int) error {
	log := logger.NewProduction("bench")
	defer log.Sync()

	opts := options.NewDefaultOptions()
	opts.UnlinkOnClose = true

	seg, err := segment.Create(name, size, &segment.Config{Options: &opts, Logger: log})
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}
	defer seg.Close()

	q, err := container.OpenQueue[int64](seg, "bench-queue", queueCap)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}

	total := int64(producers) * int64(perProducer)
	fmt.Printf("queue throughput: producers=%d consumers=%d items=%d capacity=%d\n", producers, consumers, total, q.Capacity())

	start := time.Now()

	g, ctx := errgroup.WithContext(context.Background())
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				for {
					if err := ctx.Err(); err != nil {
						return err
					}
					if err := q.Push(int64(i)); err == nil {
						break
					}
				}
			}
			return nil
		})
	}

	var drained int64
	cg, cctx := errgroup.WithContext(context.Background())
	for c := 0; c < consumers; c++ {
		cg.Go(func() error {
			for atomic.LoadInt64(&drained) < total {
				if err := cctx.Err(); err != nil {
					return err
				}
				if _, err := q.Pop(); err == nil {
					atomic.AddInt64(&drained, 1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("producers: %w", err)
	}
	if err := cg.Wait(); err != nil {
		return fmt.Errorf("consumers: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("drained %d items in %s (%.0f ops/sec)\n", drained, elapsed, float64(drained)/elapsed.Seconds())

	arr, err := container.OpenArray[float64](seg, "bench-array", 1<<16)
	if err != nil {
		return fmt.Errorf("open array: %w", err)
	}
	start = time.Now()
	for i := uint64(0); i < arr.Len(); i++ {
		if err := arr.Set(i, float64(i)); err != nil {
			return fmt.Errorf("array set: %w", err)
		}
	}
	fmt.Printf("array fill: %d elements in %s\n", arr.Len(), time.Since(start))

	return nil
}
