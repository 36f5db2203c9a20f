// Package memory holds the in-process job store, the default backend.
package memory

import (
	"context"
	"sync"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/repository"
)

var _ repository.JobStore = (*JobStore)(nil)

type entry struct {
	mu  sync.Mutex
	job *model.Job
}

// JobStore keeps the canonical job records in memory. Per-job mutation is
// serialized by an entry-level mutex so updates for different jobs never
// block each other, while readers always see a fully-applied patch.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: map[string]*entry{}}
}

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.jobs[job.ID] = &entry{job: job.Clone()}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	e, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone(), nil
}

func (s *JobStore) Update(ctx context.Context, id string, patch func(*model.Job) error) (*model.Job, error) {
	s.mu.RLock()
	e, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// Patch a scratch copy so a failed patch leaves the record untouched.
	next := e.job.Clone()
	if err := patch(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()
	e.job = next
	return next.Clone(), nil
}

func (s *JobStore) List(ctx context.Context) ([]*model.Job, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*model.Job, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.job.Clone())
		e.mu.Unlock()
	}
	return out, nil
}
