package repository

import (
	"context"
	"time"
)

// FileCategory classifies a tracked job file.
type FileCategory string

const (
	FileUpload       FileCategory = "upload"
	FileIntermediate FileCategory = "intermediate"
	FileOutput       FileCategory = "output"
)

// FileLifecycle tracks every file created for a job and enforces the
// time-based retention policy.
type FileLifecycle interface {
	Register(jobID, path string, category FileCategory)
	// Sweep deletes tracked files older than the retention window and
	// returns how many it removed. Files of jobs still running are never
	// touched. Deleting an already-deleted path is a no-op.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Swept reports whether the job's files were removed by a prior sweep.
	Swept(jobID string) bool
}
