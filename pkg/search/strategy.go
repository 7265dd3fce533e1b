package search

import (
	"context"
	"sort"

	"github.com/bionetlab/netcontrol/pkg/control"
)

// Candidate is one driver-node set with its fitness. Candidates are value
// objects: a step never mutates one in place, it produces replacements.
type Candidate struct {
	// Drivers holds the full driver set (sources plus selected free
	// nodes) as sorted external node IDs.
	Drivers []uint64
	Fitness control.Fitness
	// Generation is set by the genetic strategy; zero for greedy.
	Generation int
}

// BetterThan reports whether c beats other, applying the full deterministic
// ordering: fitness first, then lexicographic driver IDs.
func (c Candidate) BetterThan(other Candidate) bool {
	if cmp := c.Fitness.Compare(other.Fitness); cmp != 0 {
		return cmp > 0
	}
	return control.CompareDriverSets(c.Drivers, other.Drivers) > 0
}

// Clone returns a deep copy of the candidate
func (c Candidate) Clone() Candidate {
	drivers := make([]uint64, len(c.Drivers))
	copy(drivers, c.Drivers)
	return Candidate{Drivers: drivers, Fitness: c.Fitness, Generation: c.Generation}
}

// StepResult reports the outcome of one search iteration
type StepResult struct {
	// Iteration is the 1-based count of completed iterations
	Iteration int
	// Improved is true when this step strictly improved the best fitness
	Improved bool
	// Best is the best candidate found so far
	Best Candidate
}

// Strategy advances a driver-set search one iteration at a time.
//
// Implementations hold all search state internally; the runner only calls
// Step until a stopping condition fires. Step must not block on anything
// other than the computation itself.
type Strategy interface {
	// Step advances the search by one iteration
	Step(ctx context.Context) (StepResult, error)
	// Best returns the best candidate found so far
	Best() Candidate
	// Name identifies the strategy in logs and metrics
	Name() string
}

// sortedDrivers returns the sorted union of sources and selected free nodes
func sortedDrivers(sources []uint64, selected map[uint64]bool) []uint64 {
	out := make([]uint64, 0, len(sources)+len(selected))
	out = append(out, sources...)
	for id := range selected {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
