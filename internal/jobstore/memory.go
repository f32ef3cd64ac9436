package jobstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"clipforge/internal/pkg/errors"
)

// MemoryStore keeps job records in process memory. Records do not survive
// a restart; it is the default backend for single-instance deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return errors.New(errors.CodeConflict, "job already exists").WithField("job_id", job.ID)
	}
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.JobNotFound(id)
	}
	return &job, nil
}

func (s *MemoryStore) Complete(_ context.Context, id, outputKey string) error {
	return s.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.OutputKey = outputKey
	})
}

func (s *MemoryStore) Fail(_ context.Context, id, message string) error {
	return s.update(id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = message
	})
}

func (s *MemoryStore) List(_ context.Context) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		j := job
		out = append(out, &j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) update(id string, apply func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return errors.JobNotFound(id)
	}
	apply(&job)
	s.jobs[id] = job
	return nil
}
