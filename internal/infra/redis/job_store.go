package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/repository"
)

var _ repository.JobStore = (*JobStore)(nil)

const jobIndexKey = "dub_jobs:index"

// JobStore persists job records as JSON in Redis. A single orchestrator
// process drives each job, so per-job update serialization is handled with
// process-local mutexes; the record TTL piggybacks on the retention window.
type JobStore struct {
	client RedisClient
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewJobStore(client RedisClient, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &JobStore{client: client, ttl: ttl, locks: map[string]*sync.Mutex{}}
}

func (s *JobStore) jobKey(id string) string {
	return fmt.Sprintf("dub_job:%s", id)
}

func (s *JobStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// dropLock prunes the per-job mutex once the record is gone, so the lock
// table does not grow with every job id the process ever saw.
func (s *JobStore) dropLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

func (s *JobStore) save(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.jobKey(job.ID), data, s.ttl); err != nil {
		return err
	}
	return s.client.SAdd(ctx, jobIndexKey, job.ID)
}

func (s *JobStore) load(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.client.Get(ctx, s.jobKey(id))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	l := s.lockFor(job.ID)
	l.Lock()
	defer l.Unlock()
	if _, err := s.load(ctx, job.ID); err == nil {
		return domain.ErrAlreadyExists
	}
	return s.save(ctx, job)
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.load(ctx, id)
}

func (s *JobStore) Update(ctx context.Context, id string, patch func(*model.Job) error) (*model.Job, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now()
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job.Clone(), nil
}

func (s *JobStore) List(ctx context.Context) ([]*model.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIndexKey)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.load(ctx, id)
		if err != nil {
			// Expired record: drop it from the index and keep going.
			if err == domain.ErrNotFound {
				_ = s.client.SRem(ctx, jobIndexKey, id)
				s.dropLock(id)
				continue
			}
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}
