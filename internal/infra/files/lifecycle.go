// Package files tracks every file created per job and enforces the
// time-based retention policy.
package files

import (
	"context"
	"os"
	"sync"
	"time"

	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/repository"
	"voxdub/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ repository.FileLifecycle = (*Manager)(nil)

type tracked struct {
	jobID     string
	path      string
	category  repository.FileCategory
	createdAt time.Time
	deleted   bool
}

// Manager registers job files and sweeps them once the retention window
// elapses. Sweep may run concurrently with active jobs; it consults the job
// store and never touches files of jobs it cannot prove are not running.
type Manager struct {
	store     repository.JobStore
	retention time.Duration

	mu    sync.Mutex
	files []*tracked
	swept map[string]bool // jobID -> all files removed

	log *zerolog.Logger
}

func NewManager(store repository.JobStore, retention time.Duration, logger *zerolog.Logger) *Manager {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	mgrLog := logger.With().Str("component", "FileLifecycle").Logger()
	return &Manager{
		store:     store,
		retention: retention,
		swept:     map[string]bool{},
		log:       &mgrLog,
	}
}

func (m *Manager) Register(jobID, path string, category repository.FileCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, &tracked{
		jobID:     jobID,
		path:      path,
		category:  category,
		createdAt: time.Now(),
	})
}

// Sweep deletes expired files and returns how many it removed. A file whose
// job is still running is skipped and logged as an anomaly: a stuck job must
// not lose its inputs out from under it.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	candidates := make([]*tracked, 0)
	for _, f := range m.files {
		if !f.deleted && now.Sub(f.createdAt) > m.retention {
			candidates = append(candidates, f)
		}
	}
	m.mu.Unlock()

	deleted := 0
	for _, f := range candidates {
		job, err := m.store.Get(ctx, f.jobID)
		if err == nil && (job.Status == model.JobStatusRunning || job.Status == model.JobStatusQueued) {
			m.log.Warn().
				Str("job_id", f.jobID).
				Str("path", f.path).
				Str("status", string(job.Status)).
				Msg("retention window elapsed but job still active; skipping sweep")
			metrics.IncSweepSkippedRunning()
			continue
		}

		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			m.log.Error().Err(err).Str("path", f.path).Msg("sweep delete failed")
			continue
		}
		m.mu.Lock()
		f.deleted = true
		m.mu.Unlock()
		deleted++
	}

	m.markFullySwept()
	if deleted > 0 {
		metrics.AddFilesSwept(deleted)
		m.log.Info().Int("count", deleted).Msg("retention sweep removed files")
	}
	return deleted, nil
}

// Swept reports whether every tracked file of the job has been removed.
func (m *Manager) Swept(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.swept[jobID]
}

func (m *Manager) markFullySwept() {
	m.mu.Lock()
	defer m.mu.Unlock()
	remaining := map[string]bool{}
	seen := map[string]bool{}
	for _, f := range m.files {
		seen[f.jobID] = true
		if !f.deleted {
			remaining[f.jobID] = true
		}
	}
	for jobID := range seen {
		if !remaining[jobID] {
			m.swept[jobID] = true
		}
	}

	// Compact tombstones; swept-ness is carried by the map above, so a
	// long-lived process does not accumulate entries for removed files.
	kept := m.files[:0]
	for _, f := range m.files {
		if !f.deleted {
			kept = append(kept, f)
		}
	}
	m.files = kept
}
