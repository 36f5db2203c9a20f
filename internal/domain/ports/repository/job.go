package repository

import (
	"context"

	"voxdub/internal/domain/model"
)

// JobStore is the single source of truth for job status polling.
//
// Implementations must guarantee read-after-write consistency for a single
// process, serialize concurrent Update calls for the same job id, and never
// let a reader observe a partially-applied patch. Updates for different job
// ids must not block each other.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	// Get returns a copy of the job or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Update applies the patch atomically under the job's lock and refreshes
	// UpdatedAt. The patch receives the canonical record; returning an error
	// aborts the update without side effects.
	Update(ctx context.Context, id string, patch func(*model.Job) error) (*model.Job, error)
	// List returns a snapshot of all jobs, for housekeeping.
	List(ctx context.Context) ([]*model.Job, error)
}
