package search

import (
	"context"
	"testing"

	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/graph"
)

// setupChainModel builds a network where the source covers nothing and two
// free nodes feed the targets:
//
//	F1(2) -> T1(4), F2(3) -> T2(5), S(1) isolated
//
// Target coverage requires selecting free drivers, one per step.
func setupChainModel(t *testing.T) (*graph.Model, *control.Evaluator) {
	t.Helper()

	nodes := []graph.NodeSpec{
		{ID: 1, Role: graph.RoleSource},
		{ID: 2, Role: graph.RoleFree},
		{ID: 3, Role: graph.RoleFree},
		{ID: 4, Role: graph.RoleTarget},
		{ID: 5, Role: graph.RoleTarget},
	}
	edges := []graph.EdgeSpec{
		{FromNodeID: 2, ToNodeID: 4},
		{FromNodeID: 3, ToNodeID: 5},
	}

	m, err := graph.NewModel(nodes, edges)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m, control.NewEvaluator(m, nil)
}

func TestGreedy_SourcesAloneSuffice(t *testing.T) {
	// Reference scenario: A->C, B->C, B->D with sources {A, B}.
	nodes := []graph.NodeSpec{
		{ID: 1, Role: graph.RoleSource},
		{ID: 2, Role: graph.RoleSource},
		{ID: 3, Role: graph.RoleTarget},
		{ID: 4, Role: graph.RoleTarget},
	}
	edges := []graph.EdgeSpec{
		{FromNodeID: 1, ToNodeID: 3},
		{FromNodeID: 2, ToNodeID: 3},
		{FromNodeID: 2, ToNodeID: 4},
	}
	m, err := graph.NewModel(nodes, edges)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	g, err := NewGreedy(m, control.NewEvaluator(m, nil))
	if err != nil {
		t.Fatalf("NewGreedy failed: %v", err)
	}

	best := g.Best()
	if best.Fitness.Coverage != 1.0 {
		t.Errorf("Expected sources alone to reach coverage 1.0, got %f", best.Fitness.Coverage)
	}
	if len(best.Drivers) != 2 || best.Drivers[0] != 1 || best.Drivers[1] != 2 {
		t.Errorf("Expected driver set {1, 2}, got %v", best.Drivers)
	}
}

func TestGreedy_MonotoneFitness(t *testing.T) {
	m, eval := setupChainModel(t)
	g, err := NewGreedy(m, eval)
	if err != nil {
		t.Fatalf("NewGreedy failed: %v", err)
	}

	prev := g.Best().Fitness
	for i := 0; i < 5; i++ {
		res, err := g.Step(context.Background())
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if res.Best.Fitness.Coverage < prev.Coverage {
			t.Errorf("Step %d: coverage regressed from %f to %f", i, prev.Coverage, res.Best.Fitness.Coverage)
		}
		prev = res.Best.Fitness
	}
}

func TestGreedy_CommitsOneAdditionPerStep(t *testing.T) {
	m, eval := setupChainModel(t)
	g, err := NewGreedy(m, eval)
	if err != nil {
		t.Fatalf("NewGreedy failed: %v", err)
	}

	if g.Best().Fitness.Coverage != 0.0 {
		t.Fatalf("Expected seed coverage 0.0, got %f", g.Best().Fitness.Coverage)
	}

	res, err := g.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !res.Improved {
		t.Error("Expected first step to improve")
	}
	if res.Best.Fitness.Coverage != 0.5 {
		t.Errorf("Expected coverage 0.5 after one step, got %f", res.Best.Fitness.Coverage)
	}
	if len(res.Best.Drivers) != 2 {
		t.Errorf("Expected 2 drivers after one step, got %v", res.Best.Drivers)
	}

	res, err = g.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res.Best.Fitness.Coverage != 1.0 {
		t.Errorf("Expected coverage 1.0 after two steps, got %f", res.Best.Fitness.Coverage)
	}
}

func TestGreedy_SmallestIDTieBreak(t *testing.T) {
	// Both free nodes reach the single target; the smaller ID must win.
	nodes := []graph.NodeSpec{
		{ID: 5, Role: graph.RoleFree},
		{ID: 3, Role: graph.RoleFree},
		{ID: 9, Role: graph.RoleTarget},
	}
	edges := []graph.EdgeSpec{
		{FromNodeID: 5, ToNodeID: 9},
		{FromNodeID: 3, ToNodeID: 9},
	}
	m, err := graph.NewModel(nodes, edges)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	g, err := NewGreedy(m, control.NewEvaluator(m, nil))
	if err != nil {
		t.Fatalf("NewGreedy failed: %v", err)
	}

	res, err := g.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(res.Best.Drivers) != 1 || res.Best.Drivers[0] != 3 {
		t.Errorf("Expected tie broken to driver {3}, got %v", res.Best.Drivers)
	}
}

func TestGreedy_NoImprovementWhenSaturated(t *testing.T) {
	m, eval := setupChainModel(t)
	g, err := NewGreedy(m, eval)
	if err != nil {
		t.Fatalf("NewGreedy failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := g.Step(ctx); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}

	res, err := g.Step(ctx)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if res.Improved {
		t.Error("Expected flat step once coverage is full")
	}
	if res.Iteration != 3 {
		t.Errorf("Expected iteration counter 3, got %d", res.Iteration)
	}
}
