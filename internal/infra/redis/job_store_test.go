package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"

	goredis "github.com/go-redis/redis/v8"
)

// fakeRedis keeps keys and sets in memory, mimicking the subset of commands
// the job store issues.
type fakeRedis struct {
	mu   sync.Mutex
	kv   map[string]string
	sets map[string]map[string]bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string]string{}, sets: map[string]map[string]bool{}}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.kv[key] = v
	case []byte:
		f.kv[key] = string(v)
	}
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
	}
	return nil
}

func (f *fakeRedis) SAdd(ctx context.Context, key string, members ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[key]
	if !ok {
		set = map[string]bool{}
		f.sets[key] = set
	}
	for _, m := range members {
		if s, ok := m.(string); ok {
			set[s] = true
		}
	}
	return nil
}

func (f *fakeRedis) SRem(ctx context.Context, key string, members ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		if s, ok := m.(string); ok {
			delete(f.sets[key], s)
		}
	}
	return nil
}

func (f *fakeRedis) SMembers(ctx context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRedis) Close() error { return nil }

func TestJobStoreRoundTrip(t *testing.T) {
	store := NewJobStore(newFakeRedis(), time.Hour)
	ctx := context.Background()

	job := model.NewJob("job-1", "clip.mp4", "es", "fish_audio")
	job.AddArtifact("upload", "/uploads/job-1.mp4")
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, job); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate create: got %v, want ErrAlreadyExists", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TargetLanguage != "es" || got.ProviderRequested != "fish_audio" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.ArtifactPaths["upload"] != "/uploads/job-1.mp4" {
		t.Errorf("artifacts = %v", got.ArtifactPaths)
	}

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing job: got %v, want ErrNotFound", err)
	}
}

func TestJobStoreUpdate(t *testing.T) {
	store := NewJobStore(newFakeRedis(), time.Hour)
	ctx := context.Background()

	if err := store.Create(ctx, model.NewJob("job-1", "clip.mp4", "es", "")); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.Update(ctx, "job-1", func(j *model.Job) error {
		j.Status = model.JobStatusRunning
		j.Progress = 15
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.JobStatusRunning || updated.Progress != 15 {
		t.Errorf("update result = %+v", updated)
	}

	boom := errors.New("boom")
	if _, err := store.Update(ctx, "job-1", func(j *model.Job) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("failing patch: got %v", err)
	}
	got, _ := store.Get(ctx, "job-1")
	if got.Progress != 15 {
		t.Errorf("failed patch leaked: progress = %d, want 15", got.Progress)
	}
}

func TestJobStoreListDropsExpired(t *testing.T) {
	client := newFakeRedis()
	store := NewJobStore(client, time.Hour)
	ctx := context.Background()

	for _, id := range []string{"job-1", "job-2"} {
		if err := store.Create(ctx, model.NewJob(id, "clip.mp4", "es", "")); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	// Simulate TTL expiry of one record while the index still lists it.
	if err := client.Del(ctx, "dub_job:job-1"); err != nil {
		t.Fatalf("del: %v", err)
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-2" {
		t.Errorf("list = %v, want only job-2", jobs)
	}

	members, _ := client.SMembers(ctx, "dub_jobs:index")
	if len(members) != 1 {
		t.Errorf("index still holds %v after sweep", members)
	}

	store.mu.Lock()
	_, held := store.locks["job-1"]
	store.mu.Unlock()
	if held {
		t.Error("per-job lock for expired record not pruned")
	}
}
