package control

import (
	"github.com/bionetlab/netcontrol/pkg/graph"
)

// CoveragePolicy decides how many targets a driver set controls.
//
// The exact controllability rule is pluggable: the default MatchingPolicy
// applies a maximum-matching rule in the structural-controllability style,
// while ReachabilityPolicy counts plain reachability. Both are pure
// functions of (model, drivers) and must be deterministic.
type CoveragePolicy interface {
	// CoveredTargets returns how many target nodes the given driver
	// handles control. reach maps each driver position to the set of
	// target positions (indexes into model.Targets()) it can reach.
	CoveredTargets(model *graph.Model, reach [][]int) int
	// Name identifies the policy in logs
	Name() string
}

// MatchingPolicy covers a target only if it can be matched to a distinct
// driver-originating path: each driver controls at most one target, so the
// covered count is the size of a maximum bipartite matching between drivers
// and the targets they reach.
type MatchingPolicy struct{}

// Name identifies the policy
func (MatchingPolicy) Name() string { return "maximum-matching" }

// CoveredTargets computes the maximum driver-target matching size using
// Kuhn's augmenting-path algorithm. Drivers are processed in ascending
// handle order, which keeps the result deterministic.
func (MatchingPolicy) CoveredTargets(model *graph.Model, reach [][]int) int {
	targetCount := len(model.Targets())
	matchedBy := make([]int, targetCount)
	for i := range matchedBy {
		matchedBy[i] = -1
	}

	matched := 0
	visited := make([]bool, targetCount)
	for d := range reach {
		for i := range visited {
			visited[i] = false
		}
		if augment(d, reach, matchedBy, visited) {
			matched++
		}
		if matched == targetCount {
			break
		}
	}
	return matched
}

// augment tries to find an augmenting path for driver d
func augment(d int, reach [][]int, matchedBy []int, visited []bool) bool {
	for _, t := range reach[d] {
		if visited[t] {
			continue
		}
		visited[t] = true
		if matchedBy[t] == -1 || augment(matchedBy[t], reach, matchedBy, visited) {
			matchedBy[t] = d
			return true
		}
	}
	return false
}

// ReachabilityPolicy covers a target if any driver reaches it. It is the
// permissive alternative to MatchingPolicy: a single driver may cover every
// target it can reach.
type ReachabilityPolicy struct{}

// Name identifies the policy
func (ReachabilityPolicy) Name() string { return "reachability" }

// CoveredTargets counts targets reachable from at least one driver
func (ReachabilityPolicy) CoveredTargets(model *graph.Model, reach [][]int) int {
	covered := make([]bool, len(model.Targets()))
	count := 0
	for _, targets := range reach {
		for _, t := range targets {
			if !covered[t] {
				covered[t] = true
				count++
			}
		}
	}
	return count
}
