package render

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clipforge/internal/clip"
	"clipforge/internal/jobstore"
	"clipforge/internal/pkg/errors"
)

type fakeRunner struct {
	mu      sync.Mutex
	fail    map[string]error
	panicOn string
	block   chan struct{}

	active    int32
	maxActive int32
}

func (r *fakeRunner) Run(ctx context.Context, jobID string, _ *clip.Spec) (string, error) {
	cur := atomic.AddInt32(&r.active, 1)
	defer atomic.AddInt32(&r.active, -1)
	for {
		max := atomic.LoadInt32(&r.maxActive)
		if cur <= max || atomic.CompareAndSwapInt32(&r.maxActive, max, cur) {
			break
		}
	}

	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return "", errors.RenderTimeout(jobID)
		}
	}

	if jobID == r.panicOn {
		panic("boom")
	}

	r.mu.Lock()
	err := r.fail[jobID]
	r.mu.Unlock()
	if err != nil {
		return "", err
	}
	return "jobs/" + jobID + "/output.mp4", nil
}

func waitForTerminal(t *testing.T, store jobstore.Store, id string) *jobstore.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return nil
}

func submit(t *testing.T, pool *Pool, store jobstore.Store, id string) {
	t.Helper()
	if err := store.Create(context.Background(), jobstore.NewJob(id)); err != nil {
		t.Fatal(err)
	}
	pool.Submit(context.Background(), id, testSpec())
}

func TestPoolCompletesJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	pool := NewPool(&fakeRunner{}, store, 2, 0, testLogger())

	submit(t, pool, store, "job-1")

	job := waitForTerminal(t, store, "job-1")
	if job.Status != jobstore.StatusCompleted {
		t.Errorf("status = %s, error = %q", job.Status, job.Error)
	}
	if job.OutputKey != "jobs/job-1/output.mp4" {
		t.Errorf("output key = %q", job.OutputKey)
	}
}

func TestPoolFailsJobAndKeepsOthers(t *testing.T) {
	store := jobstore.NewMemoryStore()
	runner := &fakeRunner{fail: map[string]error{
		"bad": errors.New(errors.CodeRenderFailed, "ffmpeg failed: exit status 1"),
	}}
	pool := NewPool(runner, store, 2, 0, testLogger())

	submit(t, pool, store, "bad")
	submit(t, pool, store, "good")

	bad := waitForTerminal(t, store, "bad")
	if bad.Status != jobstore.StatusFailed {
		t.Errorf("bad status = %s", bad.Status)
	}
	if bad.Error == "" {
		t.Error("failed job should carry diagnostics")
	}

	good := waitForTerminal(t, store, "good")
	if good.Status != jobstore.StatusCompleted {
		t.Errorf("good status = %s, failure must not spill over", good.Status)
	}
}

func TestPoolRecoversWorkerPanic(t *testing.T) {
	store := jobstore.NewMemoryStore()
	pool := NewPool(&fakeRunner{panicOn: "job-1"}, store, 1, 0, testLogger())

	submit(t, pool, store, "job-1")

	job := waitForTerminal(t, store, "job-1")
	if job.Status != jobstore.StatusFailed {
		t.Errorf("status = %s, want failed after panic", job.Status)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	store := jobstore.NewMemoryStore()
	runner := &fakeRunner{block: make(chan struct{})}
	pool := NewPool(runner, store, 2, 0, testLogger())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		submit(t, pool, store, id)
	}

	// Give queued goroutines a chance to (incorrectly) start.
	time.Sleep(50 * time.Millisecond)
	close(runner.block)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		waitForTerminal(t, store, id)
	}
	if max := atomic.LoadInt32(&runner.maxActive); max > 2 {
		t.Errorf("max concurrent renders = %d, want <= 2", max)
	}
}

func TestPoolSubmitReturnsImmediately(t *testing.T) {
	store := jobstore.NewMemoryStore()
	runner := &fakeRunner{block: make(chan struct{})}
	pool := NewPool(runner, store, 1, 0, testLogger())
	defer close(runner.block)

	if err := store.Create(context.Background(), jobstore.NewJob("job-1")); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	pool.Submit(context.Background(), "job-1", testSpec())
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Submit blocked for %v", elapsed)
	}

	job, err := store.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != jobstore.StatusProcessing {
		t.Errorf("status right after submit = %s, want processing", job.Status)
	}
}

func TestPoolTimeoutFailsJob(t *testing.T) {
	store := jobstore.NewMemoryStore()
	runner := &fakeRunner{block: make(chan struct{})}
	defer close(runner.block)
	pool := NewPool(runner, store, 1, 50*time.Millisecond, testLogger())

	submit(t, pool, store, "job-1")

	job := waitForTerminal(t, store, "job-1")
	if job.Status != jobstore.StatusFailed {
		t.Errorf("status = %s, want failed on timeout", job.Status)
	}
}

func TestPoolWait(t *testing.T) {
	store := jobstore.NewMemoryStore()
	pool := NewPool(&fakeRunner{}, store, 2, 0, testLogger())

	submit(t, pool, store, "job-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.Wait(ctx); err != nil {
		t.Errorf("wait: %v", err)
	}
}
