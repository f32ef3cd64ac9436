// Package jobstore tracks render jobs: their lifecycle state, timestamps
// and final outcome. State lives behind the Store interface with memory
// and Redis backends.
package jobstore

import "time"

// Status is the lifecycle state of a render job.
type Status string

const (
	// StatusProcessing means the job has been accepted and is queued or
	// rendering. Jobs are created directly in this state.
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one render job record.
type Job struct {
	ID          string     `json:"job_id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Error holds the failure diagnostics for failed jobs.
	Error string `json:"error,omitempty"`
	// OutputKey is the storage key of the rendered file for completed jobs.
	OutputKey string `json:"output_key,omitempty"`
}

// NewJob creates a job record in the processing state.
func NewJob(id string) *Job {
	return &Job{
		ID:        id,
		Status:    StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
}
