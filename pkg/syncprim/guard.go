package syncprim

import "go.uber.org/zap"

// Guard is a scoped acquisition: Close releases whatever was acquired,
// on every exit path, the same way Go's defer guarantees Close/Unlock
// runs even when a function returns early or panics.
type Guard struct {
	release func() error
	closed  bool
}

// Close releases the guarded resource. It is safe to call more than
// once; only the first call has effect.
func (g *Guard) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	return g.release()
}

// LogOnError is a convenience for the common `defer guard.LogOnError(log)`
// pattern, logging a release failure instead of silently dropping it.
func (g *Guard) LogOnError(log *zap.SugaredLogger) {
	if err := g.Close(); err != nil {
		log.Errorw("failed to release guarded resource", "error", err)
	}
}
