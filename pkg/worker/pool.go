// Package worker executes analyses on a bounded pool of goroutines. Each
// analysis runs on exactly one worker, so the single-writer rule of the
// runner holds; distinct analyses run concurrently.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/bionetlab/netcontrol/pkg/analysis"
	"github.com/bionetlab/netcontrol/pkg/graph"
	"github.com/bionetlab/netcontrol/pkg/logging"
)

// ErrPoolClosed is returned when submitting to a closed pool
var ErrPoolClosed = fmt.Errorf("worker pool closed")

type job struct {
	analysis *analysis.Analysis
	model    *graph.Model
	ctx      context.Context
}

// Pool runs analyses and tracks their cancellation handles
type Pool struct {
	runner *analysis.Runner
	logger logging.Logger

	tasks chan job
	wg    sync.WaitGroup

	// mu protects tasks from concurrent close during send
	mu     sync.RWMutex
	closed bool
	once   sync.Once

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// NewPool creates a pool with the given number of workers
func NewPool(workers int, runner *analysis.Runner, logger logging.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	p := &Pool{
		runner:  runner,
		logger:  logger.With(logging.Component("worker-pool")),
		tasks:   make(chan job, workers*2),
		cancels: make(map[string]context.CancelFunc),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.tasks {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("analysis panicked",
				logging.AnalysisID(j.analysis.ID),
				logging.Any("panic", fmt.Sprint(r)),
			)
		}
		p.cancelMu.Lock()
		delete(p.cancels, j.analysis.ID)
		p.cancelMu.Unlock()
	}()

	if err := p.runner.Run(j.ctx, j.analysis, j.model); err != nil {
		p.logger.Error("analysis run failed",
			logging.AnalysisID(j.analysis.ID), logging.Error(err))
	}
}

// Submit queues an analysis for execution. The returned error is
// ErrPoolClosed once Close has been called.
func (p *Pool) Submit(a *analysis.Analysis, model *graph.Model) error {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		cancel()
		return ErrPoolClosed
	}

	p.cancelMu.Lock()
	p.cancels[a.ID] = cancel
	p.cancelMu.Unlock()

	// Safe to send because we hold the lock and the pool is not closed
	p.tasks <- job{analysis: a, model: model, ctx: ctx}
	return nil
}

// Stop requests cancellation of one analysis. Stopping an unknown or
// already-terminal analysis is a no-op; the return value reports whether
// a running analysis was signalled.
func (p *Pool) Stop(analysisID string) bool {
	p.cancelMu.Lock()
	cancel, ok := p.cancels[analysisID]
	p.cancelMu.Unlock()

	if !ok {
		return false
	}
	cancel()
	return true
}

// Running returns the number of analyses currently tracked by the pool
func (p *Pool) Running() int {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	return len(p.cancels)
}

// Close stops accepting work, cancels running analyses, and waits for
// the workers to drain.
func (p *Pool) Close() {
	p.once.Do(func() {
		// Cancel running work first so a Submit blocked on a full
		// queue can finish its send and release the read lock.
		p.cancelAll()

		// Acquire write lock before closing
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()

		// Catch cancels registered while the queue was draining
		p.cancelAll()
	})
	p.wg.Wait()
}

func (p *Pool) cancelAll() {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()
	for _, cancel := range p.cancels {
		cancel()
	}
}
