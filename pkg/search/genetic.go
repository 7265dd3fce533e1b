package search

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/graph"
)

// GeneticParams configures the genetic strategy
type GeneticParams struct {
	// PopulationSize is the number of candidates per generation
	PopulationSize int `json:"populationSize" yaml:"population_size"`
	// CrossoverRate is the probability a child inherits a free node's
	// membership from the first parent instead of the second
	CrossoverRate float64 `json:"crossoverRate" yaml:"crossover_rate"`
	// MutationRate is the per-node probability of toggling membership
	MutationRate float64 `json:"mutationRate" yaml:"mutation_rate"`
	// Seed fixes the pseudo-random sequence so runs are reproducible
	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultGeneticParams returns the default genetic configuration
func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		PopulationSize: 50,
		CrossoverRate:  0.5,
		MutationRate:   0.02,
		Seed:           1,
	}
}

// Validate checks parameter ranges
func (p GeneticParams) Validate() error {
	if p.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got %d", p.PopulationSize)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0, 1], got %f", p.CrossoverRate)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1], got %f", p.MutationRate)
	}
	return nil
}

// Genetic evolves a population of driver sets across generations.
//
// Each generation evaluates every candidate, selects parents by rank,
// produces offspring via uniform membership crossover and bit-flip
// mutation, and carries the single best candidate over unchanged
// (elitism). All randomness flows from the seeded source, so a fixed seed
// reproduces the exact sequence of best fitness values per generation.
type Genetic struct {
	model  *graph.Model
	eval   *control.Evaluator
	params GeneticParams
	rng    *rand.Rand

	sources    []uint64
	freeIDs    []uint64
	population []Candidate
	elite      Candidate
	generation int
}

// NewGenetic creates a genetic search with a random initial population and
// scores it to establish the first elite candidate.
func NewGenetic(model *graph.Model, eval *control.Evaluator, params GeneticParams) (*Genetic, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	g := &Genetic{
		model:   model,
		eval:    eval,
		params:  params,
		rng:     rand.New(rand.NewSource(params.Seed)),
		sources: model.SourceIDs(),
		freeIDs: model.FreeIDs(),
	}

	g.population = make([]Candidate, params.PopulationSize)
	for i := range g.population {
		selected := make(map[uint64]bool)
		for _, id := range g.freeIDs {
			if g.rng.Float64() < 0.5 {
				selected[id] = true
			}
		}
		c, err := g.score(selected)
		if err != nil {
			return nil, err
		}
		g.population[i] = c
	}

	g.elite = g.bestOf(g.population)
	return g, nil
}

// Name identifies the strategy
func (g *Genetic) Name() string { return "Genetic" }

// Best returns the elite candidate
func (g *Genetic) Best() Candidate { return g.elite }

// Step runs one generation: selection, crossover, mutation, elitism.
func (g *Genetic) Step(ctx context.Context) (StepResult, error) {
	g.generation++

	ranked := make([]Candidate, len(g.population))
	copy(ranked, g.population)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].BetterThan(ranked[j]) })

	next := make([]Candidate, 0, len(g.population))

	// Elitism: the previous best survives unchanged.
	next = append(next, g.elite.Clone())

	for len(next) < len(g.population) {
		a := ranked[g.rankIndex(len(ranked))]
		b := ranked[g.rankIndex(len(ranked))]

		selected := make(map[uint64]bool)
		for _, id := range g.freeIDs {
			inherit := g.contains(b, id)
			if g.rng.Float64() < g.params.CrossoverRate {
				inherit = g.contains(a, id)
			}
			if g.rng.Float64() < g.params.MutationRate {
				inherit = !inherit
			}
			if inherit {
				selected[id] = true
			}
		}

		child, err := g.score(selected)
		if err != nil {
			return StepResult{}, err
		}
		child.Generation = g.generation
		next = append(next, child)
	}

	g.population = next

	previous := g.elite
	if best := g.bestOf(g.population); best.BetterThan(g.elite) {
		g.elite = best
	}

	return StepResult{
		Iteration: g.generation,
		Improved:  g.elite.Fitness.Better(previous.Fitness),
		Best:      g.elite,
	}, nil
}

// rankIndex picks a population index biased toward the front of the
// ranked slice: two uniform draws, keep the smaller.
func (g *Genetic) rankIndex(n int) int {
	i := g.rng.Intn(n)
	if j := g.rng.Intn(n); j < i {
		i = j
	}
	return i
}

// contains reports whether the candidate selected the given free node
func (g *Genetic) contains(c Candidate, id uint64) bool {
	i := sort.Search(len(c.Drivers), func(i int) bool { return c.Drivers[i] >= id })
	return i < len(c.Drivers) && c.Drivers[i] == id
}

// score builds and evaluates a candidate from a free-node selection
func (g *Genetic) score(selected map[uint64]bool) (Candidate, error) {
	drivers := sortedDrivers(g.sources, selected)
	fit, err := g.eval.Score(drivers)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{Drivers: drivers, Fitness: fit, Generation: g.generation}, nil
}

// bestOf returns the best candidate of a population under the full
// deterministic ordering.
func (g *Genetic) bestOf(population []Candidate) Candidate {
	best := population[0]
	for _, c := range population[1:] {
		if c.BetterThan(best) {
			best = c
		}
	}
	return best.Clone()
}
