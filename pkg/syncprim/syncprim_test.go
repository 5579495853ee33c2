package syncprim

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/queelius/zeroipc/pkg/logger"
	"github.com/queelius/zeroipc/pkg/options"
	"github.com/queelius/zeroipc/pkg/segment"
	"github.com/stretchr/testify/require"
)

var nameCounter atomic.Uint64

func newScratchSegment(t *testing.T, size uint64) *segment.Segment {
	t.Helper()
	name := fmt.Sprintf("/zeroipc-syncprim-test-%d", nameCounter.Add(1))
	opts := options.NewDefaultOptions()
	opts.UnlinkOnClose = true
	seg, err := segment.Create(name, size, &segment.Config{Options: &opts, Logger: logger.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { seg.Close() })
	return seg
}
