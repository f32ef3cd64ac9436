package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"clipforge/internal/clip"
	"clipforge/internal/jobstore"
	"clipforge/internal/pkg/logger"
)

// Pool runs render jobs on a bounded number of workers. Submit never
// blocks on a render: each job gets a goroutine that waits its turn on a
// weighted semaphore, so a burst of requests queues instead of failing.
type Pool struct {
	runner  Runner
	store   jobstore.Store
	log     *logger.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	wg sync.WaitGroup
}

// NewPool creates a pool running at most workers renders concurrently.
// timeout bounds a single render; zero means no limit.
func NewPool(runner Runner, store jobstore.Store, workers int64, timeout time.Duration, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		runner:  runner,
		store:   store,
		log:     log.WithComponent("render-pool"),
		sem:     semaphore.NewWeighted(workers),
		timeout: timeout,
	}
}

// Submit schedules a job and returns immediately. The job record must
// already exist in the processing state; the pool moves it to completed
// or failed when the render finishes. One job's failure never affects
// another: every outcome, including a worker panic, lands in the store.
func (p *Pool) Submit(ctx context.Context, jobID string, spec *clip.Spec) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(context.WithoutCancel(ctx), jobID, spec)
	}()
}

func (p *Pool) process(ctx context.Context, jobID string, spec *clip.Spec) {
	log := p.log.WithJobID(jobID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("render worker panicked", "panic", rec)
			p.fail(ctx, jobID, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.fail(ctx, jobID, "render queue shut down before the job started")
		return
	}
	defer p.sem.Release(1)

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	outputKey, err := p.runner.Run(runCtx, jobID, spec)
	if err != nil {
		log.Error("render failed", "error", err)
		p.fail(ctx, jobID, err.Error())
		return
	}

	if err := p.store.Complete(ctx, jobID, outputKey); err != nil {
		log.Error("failed to mark job completed", "error", err)
	}
}

func (p *Pool) fail(ctx context.Context, jobID, message string) {
	if err := p.store.Fail(ctx, jobID, message); err != nil {
		p.log.WithJobID(jobID).Error("failed to mark job failed", "error", err)
	}
}

// Wait blocks until in-flight jobs finish or the context expires. It is
// meant for graceful shutdown.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
