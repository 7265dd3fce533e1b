package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bionetlab/netcontrol/pkg/analysis"
	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/graph"
	"github.com/bionetlab/netcontrol/pkg/search"
	"github.com/bionetlab/netcontrol/pkg/store"
)

func poolTestModel(t *testing.T) *graph.Model {
	t.Helper()

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
	return m
}

func waitForStatus(t *testing.T, s store.Store, id string, want analysis.Status) analysis.Snapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := s.GetSnapshot(context.Background(), id)
		if err == nil && snap.Status == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for analysis %s to reach %s", id, want)
	return analysis.Snapshot{}
}

func TestPool_RunsAnalysisToCompletion(t *testing.T) {
	mem := store.NewMemoryStore()
	pool := NewPool(2, analysis.NewRunner(mem, nil, nil), nil)
	defer pool.Close()

	a := analysis.New(analysis.AlgorithmGreedy, 10, 10)
	if err := pool.Submit(a, poolTestModel(t)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	snap := waitForStatus(t, mem, a.ID, analysis.StatusCompleted)
	if snap.BestCoverage != 1.0 {
		t.Errorf("Expected coverage 1.0, got %f", snap.BestCoverage)
	}
}

func TestPool_ConcurrentAnalyses(t *testing.T) {
	mem := store.NewMemoryStore()
	pool := NewPool(4, analysis.NewRunner(mem, nil, nil), nil)
	defer pool.Close()

	ids := make([]string, 5)
	for i := range ids {
		a := analysis.New(analysis.AlgorithmGreedy, 10, 10)
		ids[i] = a.ID
		if err := pool.Submit(a, poolTestModel(t)); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	for _, id := range ids {
		waitForStatus(t, mem, id, analysis.StatusCompleted)
	}
}

// slowStrategy sleeps each step so cancellation lands mid-run
type slowStrategy struct {
	iteration int
	started   chan struct{}
	once      func()
}

func (s *slowStrategy) Name() string { return "Slow" }
func (s *slowStrategy) Best() search.Candidate {
	return search.Candidate{Drivers: []uint64{1}, Fitness: control.Fitness{Coverage: 0.1, DriverSetSize: 1}}
}

func (s *slowStrategy) Step(ctx context.Context) (search.StepResult, error) {
	s.once()
	s.iteration++
	time.Sleep(2 * time.Millisecond)
	return search.StepResult{Iteration: s.iteration, Best: s.Best()}, nil
}

func TestPool_StopCancelsRunningAnalysis(t *testing.T) {
	mem := store.NewMemoryStore()
	runner := analysis.NewRunner(mem, nil, nil)

	started := make(chan struct{})
	var once sync.Once
	runner.SetStrategyFactory(func(a *analysis.Analysis, m *graph.Model, e *control.Evaluator) (search.Strategy, error) {
		return &slowStrategy{
			started: started,
			once:    func() { once.Do(func() { close(started) }) },
		}, nil
	})

	pool := NewPool(1, runner, nil)
	defer pool.Close()

	a := analysis.New(analysis.AlgorithmGreedy, 1_000_000, 1_000_000)
	if err := pool.Submit(a, poolTestModel(t)); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	<-started
	if !pool.Stop(a.ID) {
		t.Fatal("Expected Stop to signal the running analysis")
	}

	snap := waitForStatus(t, mem, a.ID, analysis.StatusStopped)
	if snap.Status != analysis.StatusStopped {
		t.Errorf("Expected Stopped, got %s", snap.Status)
	}

	// Idempotent: the handle is gone once the run finished.
	if pool.Stop(a.ID) {
		t.Error("Expected second Stop to be a no-op")
	}
}

// parkedStrategy blocks each step until the run is cancelled
type parkedStrategy struct {
	started func()
}

func (s *parkedStrategy) Name() string { return "Parked" }
func (s *parkedStrategy) Best() search.Candidate {
	return search.Candidate{Drivers: []uint64{1}, Fitness: control.Fitness{Coverage: 0.1, DriverSetSize: 1}}
}

func (s *parkedStrategy) Step(ctx context.Context) (search.StepResult, error) {
	s.started()
	<-ctx.Done()
	return search.StepResult{Iteration: 1, Best: s.Best()}, nil
}

func TestPool_CloseWhileSubmitBlockedOnFullQueue(t *testing.T) {
	mem := store.NewMemoryStore()
	runner := analysis.NewRunner(mem, nil, nil)

	started := make(chan struct{})
	var once sync.Once
	runner.SetStrategyFactory(func(a *analysis.Analysis, m *graph.Model, e *control.Evaluator) (search.Strategy, error) {
		return &parkedStrategy{
			started: func() { once.Do(func() { close(started) }) },
		}, nil
	})

	pool := NewPool(1, runner, nil)
	model := poolTestModel(t)

	// One analysis occupies the worker, two more fill the queue buffer.
	for i := 0; i < 3; i++ {
		a := analysis.New(analysis.AlgorithmGreedy, 1_000_000, 1_000_000)
		if err := pool.Submit(a, model); err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}
	<-started

	// A fourth submission blocks sending on the full queue.
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("Submit panicked: %v", r)
			}
		}()
		result <- pool.Submit(analysis.New(analysis.AlgorithmGreedy, 1_000_000, 1_000_000), model)
	}()

	time.Sleep(20 * time.Millisecond)
	pool.Close()

	select {
	case err := <-result:
		if err != nil && err != ErrPoolClosed {
			t.Fatalf("Blocked Submit failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Blocked Submit never returned")
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(1, analysis.NewRunner(store.NewMemoryStore(), nil, nil), nil)
	pool.Close()

	a := analysis.New(analysis.AlgorithmGreedy, 10, 10)
	if err := pool.Submit(a, poolTestModel(t)); err != ErrPoolClosed {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}
