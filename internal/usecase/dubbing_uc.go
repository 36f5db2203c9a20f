package usecase

import (
	"context"
	"fmt"
	"os"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/repository"
	"voxdub/internal/pipeline"
)

// Canceler requests a best-effort stop of a queued or running job.
type Canceler interface {
	Cancel(ctx context.Context, jobID string) error
}

// DubbingUseCase answers status polls and serves finished outputs.
type DubbingUseCase struct {
	store    repository.JobStore
	files    repository.FileLifecycle
	canceler Canceler
}

func NewDubbingUseCase(store repository.JobStore, files repository.FileLifecycle, canceler Canceler) *DubbingUseCase {
	return &DubbingUseCase{store: store, files: files, canceler: canceler}
}

// Status returns the job snapshot for polling.
func (uc *DubbingUseCase) Status(ctx context.Context, jobID string) (*model.Job, error) {
	return uc.store.Get(ctx, jobID)
}

// List returns all known jobs.
func (uc *DubbingUseCase) List(ctx context.Context) ([]*model.Job, error) {
	return uc.store.List(ctx)
}

// Download resolves the final output of a completed job. It returns the file
// path and the client-facing filename. A job that has not completed yields
// ErrNotReady; an output removed by retention yields ErrGone.
func (uc *DubbingUseCase) Download(ctx context.Context, jobID string) (string, string, error) {
	job, err := uc.store.Get(ctx, jobID)
	if err != nil {
		return "", "", err
	}
	if job.Status != model.JobStatusCompleted {
		return "", "", fmt.Errorf("job %s is %s: %w", jobID, job.Status, domain.ErrNotReady)
	}
	path := job.ArtifactPaths[pipeline.StageEncode]
	if path == "" {
		return "", "", fmt.Errorf("job %s has no output artifact: %w", jobID, domain.ErrGone)
	}
	if uc.files.Swept(jobID) {
		return "", "", fmt.Errorf("output of job %s: %w", jobID, domain.ErrGone)
	}
	if _, err := os.Stat(path); err != nil {
		return "", "", fmt.Errorf("output of job %s: %w", jobID, domain.ErrGone)
	}
	return path, "dubbed_" + job.Filename, nil
}

// Cancel stops a queued or running job.
func (uc *DubbingUseCase) Cancel(ctx context.Context, jobID string) error {
	return uc.canceler.Cancel(ctx, jobID)
}
