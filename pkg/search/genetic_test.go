package search

import (
	"context"
	"testing"

	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/graph"
)

// setupGeneticModel builds a moderately sized layered network: 6 free
// nodes feeding 4 targets through intermediate free nodes, one source.
func setupGeneticModel(t *testing.T) (*graph.Model, *control.Evaluator) {
	t.Helper()

	nodes := []graph.NodeSpec{
		{ID: 1, Role: graph.RoleSource},
	}
	for id := uint64(2); id <= 7; id++ {
		nodes = append(nodes, graph.NodeSpec{ID: id, Role: graph.RoleFree})
	}
	for id := uint64(8); id <= 11; id++ {
		nodes = append(nodes, graph.NodeSpec{ID: id, Role: graph.RoleTarget})
	}
	edges := []graph.EdgeSpec{
		{FromNodeID: 1, ToNodeID: 2},
		{FromNodeID: 2, ToNodeID: 8},
		{FromNodeID: 3, ToNodeID: 8},
		{FromNodeID: 3, ToNodeID: 9},
		{FromNodeID: 4, ToNodeID: 9},
		{FromNodeID: 5, ToNodeID: 10},
		{FromNodeID: 6, ToNodeID: 10},
		{FromNodeID: 6, ToNodeID: 11},
		{FromNodeID: 7, ToNodeID: 11},
	}

	m, err := graph.NewModel(nodes, edges)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m, control.NewEvaluator(m, nil)
}

func testParams() GeneticParams {
	return GeneticParams{
		PopulationSize: 20,
		CrossoverRate:  0.5,
		MutationRate:   0.05,
		Seed:           42,
	}
}

func TestGenetic_FixedSeedReproducible(t *testing.T) {
	run := func() []control.Fitness {
		m, eval := setupGeneticModel(t)
		g, err := NewGenetic(m, eval, testParams())
		if err != nil {
			t.Fatalf("NewGenetic failed: %v", err)
		}

		trace := []control.Fitness{g.Best().Fitness}
		for i := 0; i < 15; i++ {
			res, err := g.Step(context.Background())
			if err != nil {
				t.Fatalf("Step failed: %v", err)
			}
			trace = append(trace, res.Best.Fitness)
		}
		return trace
	}

	first := run()
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Generation %d diverged: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenetic_EliteNeverRegresses(t *testing.T) {
	m, eval := setupGeneticModel(t)
	g, err := NewGenetic(m, eval, testParams())
	if err != nil {
		t.Fatalf("NewGenetic failed: %v", err)
	}

	prev := g.Best().Fitness
	for i := 0; i < 20; i++ {
		res, err := g.Step(context.Background())
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if prev.Better(res.Best.Fitness) {
			t.Errorf("Generation %d: elite regressed from %+v to %+v", i+1, prev, res.Best.Fitness)
		}
		prev = res.Best.Fitness
	}
}

func TestGenetic_ImprovedTracksEliteTrend(t *testing.T) {
	m, eval := setupGeneticModel(t)
	g, err := NewGenetic(m, eval, testParams())
	if err != nil {
		t.Fatalf("NewGenetic failed: %v", err)
	}

	prev := g.Best().Fitness
	for i := 0; i < 20; i++ {
		res, err := g.Step(context.Background())
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		improved := res.Best.Fitness.Better(prev)
		if res.Improved != improved {
			t.Errorf("Generation %d: Improved=%v but fitness trend says %v", i+1, res.Improved, improved)
		}
		prev = res.Best.Fitness
	}
}

func TestGenetic_DriversAlwaysIncludeSources(t *testing.T) {
	m, eval := setupGeneticModel(t)
	g, err := NewGenetic(m, eval, testParams())
	if err != nil {
		t.Fatalf("NewGenetic failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		res, err := g.Step(context.Background())
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		found := false
		for _, id := range res.Best.Drivers {
			if id == 1 {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("Generation %d: best candidate dropped mandatory source, drivers=%v", i+1, res.Best.Drivers)
		}
	}
}

func TestGenetic_ParamValidation(t *testing.T) {
	m, eval := setupGeneticModel(t)

	bad := []GeneticParams{
		{PopulationSize: 1, CrossoverRate: 0.5, MutationRate: 0.1},
		{PopulationSize: 10, CrossoverRate: 1.5, MutationRate: 0.1},
		{PopulationSize: 10, CrossoverRate: 0.5, MutationRate: -0.1},
	}
	for i, p := range bad {
		if _, err := NewGenetic(m, eval, p); err == nil {
			t.Errorf("Case %d: expected validation error for %+v", i, p)
		}
	}
}

func TestGenetic_GenerationIndexAdvances(t *testing.T) {
	m, eval := setupGeneticModel(t)
	g, err := NewGenetic(m, eval, testParams())
	if err != nil {
		t.Fatalf("NewGenetic failed: %v", err)
	}

	for want := 1; want <= 3; want++ {
		res, err := g.Step(context.Background())
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if res.Iteration != want {
			t.Errorf("Expected iteration %d, got %d", want, res.Iteration)
		}
	}
}
