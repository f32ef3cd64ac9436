package jobstore

import "context"

// Store persists job records. Implementations must return JOB_NOT_FOUND
// for unknown ids, never an empty record, and must hand out snapshots:
// mutating a returned Job never changes stored state.
type Store interface {
	// Create inserts a new job record.
	Create(ctx context.Context, job *Job) error
	// Get returns a snapshot of one job.
	Get(ctx context.Context, id string) (*Job, error)
	// Complete marks a job completed with the storage key of its output.
	Complete(ctx context.Context, id, outputKey string) error
	// Fail marks a job failed with its diagnostics.
	Fail(ctx context.Context, id, message string) error
	// List returns snapshots of all known jobs, newest first.
	List(ctx context.Context) ([]*Job, error)
}
