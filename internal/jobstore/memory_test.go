package jobstore

import (
	"context"
	"testing"

	"clipforge/internal/pkg/errors"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := NewJob("job-1")
	if job.Status != StatusProcessing {
		t.Fatalf("new job status = %s, want processing", job.Status)
	}
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusProcessing || got.CreatedAt.IsZero() {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := store.Complete(ctx, "job-1", "jobs/job-1/output.mp4"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = store.Get(ctx, "job-1")
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.OutputKey != "jobs/job-1/output.mp4" {
		t.Errorf("output key = %q", got.OutputKey)
	}
	if got.CompletedAt == nil {
		t.Error("completed job missing completion time")
	}
	if !got.Status.Terminal() {
		t.Error("completed must be terminal")
	}
}

func TestMemoryStoreFail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, NewJob("job-1")); err != nil {
		t.Fatal(err)
	}

	if err := store.Fail(ctx, "job-1", "ffmpeg exited with status 1"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := store.Get(ctx, "job-1")
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.Error != "ffmpeg exited with status 1" {
		t.Errorf("error = %q", got.Error)
	}
	if got.CompletedAt == nil {
		t.Error("failed job missing completion time")
	}
}

func TestMemoryStoreUnknownJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "nope"); !errors.IsCode(err, errors.CodeJobNotFound) {
		t.Errorf("Get: expected JOB_NOT_FOUND, got %v", err)
	}
	if err := store.Complete(ctx, "nope", "k"); !errors.IsCode(err, errors.CodeJobNotFound) {
		t.Errorf("Complete: expected JOB_NOT_FOUND, got %v", err)
	}
	if err := store.Fail(ctx, "nope", "m"); !errors.IsCode(err, errors.CodeJobNotFound) {
		t.Errorf("Fail: expected JOB_NOT_FOUND, got %v", err)
	}
}

func TestMemoryStoreDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, NewJob("job-1")); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, NewJob("job-1")); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, NewJob("job-1")); err != nil {
		t.Fatal(err)
	}

	first, _ := store.Get(ctx, "job-1")
	first.Status = StatusFailed
	first.Error = "mutated by caller"

	second, _ := store.Get(ctx, "job-1")
	if second.Status != StatusProcessing || second.Error != "" {
		t.Errorf("caller mutation leaked into the store: %+v", second)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		job := NewJob(id)
		if err := store.Create(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 {
		t.Fatalf("list returned %d jobs", len(jobs))
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i-1].CreatedAt.Before(jobs[i].CreatedAt) {
			t.Errorf("jobs not newest first: %s before %s", jobs[i-1].ID, jobs[i].ID)
		}
	}
}

func TestFactory(t *testing.T) {
	if _, err := New("memory", nil, 0); err != nil {
		t.Errorf("memory backend: %v", err)
	}
	if _, err := New("", nil, 0); err != nil {
		t.Errorf("default backend: %v", err)
	}
	if _, err := New("redis", nil, 0); err == nil {
		t.Error("redis backend without a client should fail")
	}
	if _, err := New("postgres", nil, 0); err == nil {
		t.Error("unknown backend should fail")
	}
}
