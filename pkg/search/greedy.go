package search

import (
	"context"

	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/graph"
)

// Greedy builds one driver set incrementally by best marginal gain.
//
// The driver set starts as the mandatory source nodes. Each step tries
// every free node not yet selected, scores the tentative addition, and
// commits the single addition with the largest fitness improvement, ties
// broken by the smallest node ID. Fitness is non-decreasing by
// construction, so the search is a monotone anytime algorithm.
type Greedy struct {
	model *graph.Model
	eval  *control.Evaluator

	sources   []uint64
	selected  map[uint64]bool
	best      Candidate
	iteration int
}

// NewGreedy creates a greedy search seeded with the model's source nodes
// and scores the seed set as the initial best candidate.
func NewGreedy(model *graph.Model, eval *control.Evaluator) (*Greedy, error) {
	g := &Greedy{
		model:    model,
		eval:     eval,
		sources:  model.SourceIDs(),
		selected: make(map[uint64]bool),
	}

	drivers := sortedDrivers(g.sources, g.selected)
	fit, err := eval.Score(drivers)
	if err != nil {
		return nil, err
	}
	g.best = Candidate{Drivers: drivers, Fitness: fit}
	return g, nil
}

// Name identifies the strategy
func (g *Greedy) Name() string { return "Greedy" }

// Best returns the best candidate found so far
func (g *Greedy) Best() Candidate { return g.best }

// Step evaluates every unselected free node as a tentative addition and
// commits the one with the largest marginal gain, if any.
func (g *Greedy) Step(ctx context.Context) (StepResult, error) {
	g.iteration++

	if g.best.Fitness.FullCoverage() {
		// Nothing left to gain; report a flat iteration.
		return StepResult{Iteration: g.iteration, Improved: false, Best: g.best}, nil
	}

	var bestID uint64
	found := false
	bestFit := g.best.Fitness

	// Free IDs come back in ascending order, so keeping only strict
	// improvements yields the smallest-ID tie-break for free.
	for _, id := range g.model.FreeIDs() {
		if g.selected[id] {
			continue
		}
		g.selected[id] = true
		fit, err := g.eval.Score(sortedDrivers(g.sources, g.selected))
		delete(g.selected, id)
		if err != nil {
			return StepResult{}, err
		}
		if fit.Better(bestFit) {
			bestFit = fit
			bestID = id
			found = true
		}
	}

	if !found {
		return StepResult{Iteration: g.iteration, Improved: false, Best: g.best}, nil
	}

	g.selected[bestID] = true
	g.best = Candidate{
		Drivers: sortedDrivers(g.sources, g.selected),
		Fitness: bestFit,
	}
	return StepResult{Iteration: g.iteration, Improved: true, Best: g.best}, nil
}
