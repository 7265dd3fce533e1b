package control

import (
	"errors"
	"fmt"

	"github.com/bionetlab/netcontrol/pkg/graph"
)

// ErrEvaluationFailure is returned when a candidate cannot be scored
// against the model, e.g. because it names a node the model does not have.
var ErrEvaluationFailure = errors.New("evaluation failure")

// Evaluator scores candidate driver sets against one graph model.
//
// Scoring is a pure function of (model, candidate): the evaluator performs
// no I/O and two calls with the same candidate always return the same
// fitness. Per-driver target reachability is memoized because greedy search
// re-scores many overlapping candidates against the same model.
type Evaluator struct {
	model  *graph.Model
	policy CoveragePolicy

	// reachCache maps a driver handle to the target positions it reaches.
	// The model is immutable, so entries never invalidate.
	reachCache map[int][]int

	// targetPos maps a target handle to its position in model.Targets()
	targetPos map[int]int
}

// NewEvaluator creates an evaluator for the given model and coverage policy.
// A nil policy defaults to MatchingPolicy.
func NewEvaluator(model *graph.Model, policy CoveragePolicy) *Evaluator {
	if policy == nil {
		policy = MatchingPolicy{}
	}

	targetPos := make(map[int]int, len(model.Targets()))
	for i, h := range model.Targets() {
		targetPos[h] = i
	}

	return &Evaluator{
		model:      model,
		policy:     policy,
		reachCache: make(map[int][]int),
		targetPos:  targetPos,
	}
}

// Policy returns the active coverage policy
func (e *Evaluator) Policy() CoveragePolicy { return e.policy }

// Score computes the fitness of a driver set given by external node IDs.
// The driver set must already include the mandatory source nodes.
func (e *Evaluator) Score(driverIDs []uint64) (Fitness, error) {
	reach := make([][]int, 0, len(driverIDs))
	for _, id := range driverIDs {
		h, ok := e.model.Handle(id)
		if !ok {
			return Fitness{}, fmt.Errorf("%w: driver %d not in graph", ErrEvaluationFailure, id)
		}
		if e.model.RoleOf(h) == graph.RoleTarget {
			return Fitness{}, fmt.Errorf("%w: target node %d selected as driver", ErrEvaluationFailure, id)
		}
		reach = append(reach, e.reachableTargets(h))
	}

	covered := e.policy.CoveredTargets(e.model, reach)
	coverage := float64(covered) / float64(len(e.model.Targets()))

	return Fitness{
		Coverage:      coverage,
		DriverSetSize: len(driverIDs),
	}, nil
}

// reachableTargets returns the target positions reachable from one driver
// handle along directed edges, computed by BFS and memoized.
func (e *Evaluator) reachableTargets(driver int) []int {
	if cached, ok := e.reachCache[driver]; ok {
		return cached
	}

	seen := make([]bool, e.model.NodeCount())
	queue := []int{driver}
	seen[driver] = true

	targets := []int{}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		for _, next := range e.model.Successors(h) {
			if seen[next] {
				continue
			}
			seen[next] = true
			if pos, isTarget := e.targetPos[next]; isTarget {
				targets = append(targets, pos)
			}
			queue = append(queue, next)
		}
	}

	e.reachCache[driver] = targets
	return targets
}
