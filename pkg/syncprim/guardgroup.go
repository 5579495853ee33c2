package syncprim

import "go.uber.org/multierr"

// GuardGroup holds several scoped acquisitions released together, such
// as a set of semaphore permits taken across multiple named segments.
// CloseAll releases every guard even if an earlier one fails, aggregating
// every failure into a single error via multierr rather than stopping at
// the first one and leaking the rest.
type GuardGroup struct {
	guards []*Guard
}

// Add appends a guard to the group.
func (g *GuardGroup) Add(guard *Guard) {
	g.guards = append(g.guards, guard)
}

// CloseAll releases every guard in the group, in the order they were
// added, and returns the combined error from any that failed.
func (g *GuardGroup) CloseAll() error {
	var err error
	for _, guard := range g.guards {
		err = multierr.Append(err, guard.Close())
	}
	return err
}
