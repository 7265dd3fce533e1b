package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/bionetlab/netcontrol/pkg/control"
	"github.com/bionetlab/netcontrol/pkg/graph"
	"github.com/bionetlab/netcontrol/pkg/logging"
	"github.com/bionetlab/netcontrol/pkg/metrics"
	"github.com/bionetlab/netcontrol/pkg/search"
)

// StrategyFactory builds the search strategy for an analysis
type StrategyFactory func(a *Analysis, model *graph.Model, eval *control.Evaluator) (search.Strategy, error)

// defaultStrategyFactory dispatches on the analysis algorithm selector
func defaultStrategyFactory(a *Analysis, model *graph.Model, eval *control.Evaluator) (search.Strategy, error) {
	switch a.Algorithm {
	case AlgorithmGreedy:
		return search.NewGreedy(model, eval)
	case AlgorithmGenetic:
		return search.NewGenetic(model, eval, a.Genetic)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", a.Algorithm)
	}
}

// Runner owns the analysis status machine and iteration loop. It is the
// only component that mutates an analysis after submission: one runner
// invocation is the single writer for its analysis.
type Runner struct {
	sink    ProgressSink
	logger  logging.Logger
	metrics *metrics.Registry

	// policy overrides the evaluator coverage policy; nil means default
	policy control.CoveragePolicy

	// factory is replaceable so tests can inject failing strategies
	factory StrategyFactory

	now func() time.Time
}

// NewRunner creates a runner reporting to the given sink. The metrics
// registry may be nil.
func NewRunner(sink ProgressSink, logger logging.Logger, reg *metrics.Registry) *Runner {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Runner{
		sink:    sink,
		logger:  logger,
		metrics: reg,
		factory: defaultStrategyFactory,
		now:     time.Now,
	}
}

// SetCoveragePolicy overrides the default matching policy for evaluators
// built by this runner. Must be called before Run.
func (r *Runner) SetCoveragePolicy(p control.CoveragePolicy) { r.policy = p }

// SetStrategyFactory replaces strategy construction. Must be called before Run.
func (r *Runner) SetStrategyFactory(f StrategyFactory) { r.factory = f }

// Run executes the analysis to a terminal status.
//
// Cancellation is cooperative: the context is polled at iteration
// boundaries, never mid-step, so a cancelled run always leaves a whole
// candidate behind. Whatever best candidate was found before a fault is
// preserved and persisted.
func (r *Runner) Run(ctx context.Context, a *Analysis, model *graph.Model) error {
	if a.Status != StatusInitializing {
		return fmt.Errorf("analysis %s already started (status %s)", a.ID, a.Status)
	}

	log := r.logger.With(
		logging.Component("runner"),
		logging.AnalysisID(a.ID),
		logging.Algorithm(string(a.Algorithm)),
	)

	a.StartedAt = r.now()
	r.record(ctx, a, "analysis accepted: algorithm=%s iterationLimit=%d noImprovementLimit=%d",
		a.Algorithm, a.IterationLimit, a.NoImprovementLimit)
	if r.metrics != nil {
		r.metrics.RecordAnalysisStart()
	}

	eval := control.NewEvaluator(model, r.policy)
	strategy, err := r.factory(a, model, eval)
	if err != nil {
		return r.fail(ctx, a, log, fmt.Errorf("strategy initialization: %w", err))
	}
	a.Best = strategy.Best()
	r.persist(ctx, a)

	for {
		// Cancellation is honored between steps only.
		if ctx.Err() != nil {
			return r.stop(ctx, a, log)
		}

		stepStart := r.now()
		res, err := strategy.Step(ctx)
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecordEvaluationFailure()
			}
			return r.fail(ctx, a, log, fmt.Errorf("iteration %d: %w", a.Iteration+1, err))
		}

		if a.Status == StatusInitializing {
			if err := a.transition(r.now(), StatusOngoing); err != nil {
				return r.fail(ctx, a, log, err)
			}
			r.record(ctx, a, "analysis started")
		}

		a.Iteration = res.Iteration
		if res.Improved {
			a.NoImprovement = 0
		} else {
			a.NoImprovement++
		}
		// Best fitness never regresses across iterations.
		if res.Best.BetterThan(a.Best) {
			a.Best = res.Best
		}

		if r.metrics != nil {
			r.metrics.RecordStep(string(a.Algorithm), r.now().Sub(stepStart), a.Best.Fitness.Coverage)
		}
		log.Debug("iteration finished",
			logging.Iteration(a.Iteration),
			logging.Coverage(a.Best.Fitness.Coverage),
			logging.DriverCount(len(a.Best.Drivers)),
		)
		r.persist(ctx, a)

		// Stopping conditions, in priority order.
		switch {
		case ctx.Err() != nil:
			return r.stop(ctx, a, log)
		case a.Best.Fitness.FullCoverage():
			return r.complete(ctx, a, log, "full target coverage reached")
		case a.Iteration >= a.IterationLimit:
			return r.complete(ctx, a, log, "iteration limit reached")
		case a.NoImprovement >= a.NoImprovementLimit:
			return r.complete(ctx, a, log, "no-improvement limit reached")
		}
	}
}

// complete moves the analysis to Completed
func (r *Runner) complete(ctx context.Context, a *Analysis, log logging.Logger, reason string) error {
	if err := a.transition(r.now(), StatusCompleted); err != nil {
		return err
	}
	r.record(ctx, a, "analysis completed after %d iterations: %s (coverage %.4f, %d drivers)",
		a.Iteration, reason, a.Best.Fitness.Coverage, len(a.Best.Drivers))
	r.finish(ctx, a, log)
	return nil
}

// stop resolves a cancellation request to Stopped. The persisted best
// candidate is whatever the last finished iteration produced.
func (r *Runner) stop(ctx context.Context, a *Analysis, log logging.Logger) error {
	if a.Status.Terminal() {
		return nil
	}
	// The run context is already cancelled; terminal persistence must
	// still go through.
	ctx = context.WithoutCancel(ctx)
	if err := a.transition(r.now(), StatusStopping); err != nil {
		return err
	}
	r.record(ctx, a, "stop requested, finishing cleanly")
	if err := a.transition(r.now(), StatusStopped); err != nil {
		return err
	}
	r.record(ctx, a, "analysis stopped at iteration %d (coverage %.4f)",
		a.Iteration, a.Best.Fitness.Coverage)
	r.finish(ctx, a, log)
	return nil
}

// fail moves the analysis to Error, keeping the best candidate found so far
func (r *Runner) fail(ctx context.Context, a *Analysis, log logging.Logger, cause error) error {
	log.Error("analysis failed", logging.Error(cause), logging.Iteration(a.Iteration))
	if err := a.transition(r.now(), StatusError); err != nil {
		return err
	}
	r.record(ctx, a, "analysis failed: %v", cause)
	r.finish(ctx, a, log)
	return cause
}

// finish persists the terminal snapshot and records end-of-run metrics
func (r *Runner) finish(ctx context.Context, a *Analysis, log logging.Logger) {
	r.persist(ctx, a)
	if r.metrics != nil {
		r.metrics.RecordAnalysisEnd(string(a.Algorithm), string(a.Status), a.EndedAt.Sub(a.StartedAt))
	}
	log.Info("analysis finished",
		logging.Status(string(a.Status)),
		logging.Iteration(a.Iteration),
		logging.Coverage(a.Best.Fitness.Coverage),
		logging.DriverCount(len(a.Best.Drivers)),
	)
}

// record appends to the analysis log and forwards the entry to the sink
func (r *Runner) record(ctx context.Context, a *Analysis, format string, args ...any) {
	entry := a.appendLog(r.now(), format, args...)
	if err := r.sink.AppendLog(ctx, a.ID, entry); err != nil {
		r.logger.Warn("failed to append analysis log",
			logging.AnalysisID(a.ID), logging.Error(err))
	}
}

// persist saves the current progress snapshot through the sink
func (r *Runner) persist(ctx context.Context, a *Analysis) {
	if err := r.sink.SaveProgress(ctx, a.Snapshot(r.now())); err != nil {
		r.logger.Warn("failed to persist progress",
			logging.AnalysisID(a.ID), logging.Error(err))
	}
}
