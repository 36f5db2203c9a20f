package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
)

func TestJobStoreCreateGet(t *testing.T) {
	s := NewJobStore()
	ctx := context.Background()

	job := model.NewJob("job-1", "clip.mp4", "es", "auto")
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, job); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate create: got %v want ErrAlreadyExists", err)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.JobStatusQueued || got.TargetLanguage != "es" {
		t.Errorf("unexpected record: %+v", got)
	}

	// Returned copies must not alias the canonical record.
	got.ArtifactPaths["extract"] = "/tmp/x.wav"
	again, _ := s.Get(ctx, "job-1")
	if len(again.ArtifactPaths) != 0 {
		t.Error("Get leaked a mutable reference to the stored job")
	}

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown id: got %v want ErrNotFound", err)
	}
}

func TestJobStoreUpdateAtomic(t *testing.T) {
	s := NewJobStore()
	ctx := context.Background()
	if err := s.Create(ctx, model.NewJob("job-1", "clip.mp4", "es", "auto")); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A failing patch must leave the record untouched.
	_, err := s.Update(ctx, "job-1", func(j *model.Job) error {
		j.Progress = 50
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected patch error to propagate")
	}
	got, _ := s.Get(ctx, "job-1")
	if got.Progress != 0 {
		t.Errorf("failed patch leaked: progress = %d", got.Progress)
	}

	updated, err := s.Update(ctx, "job-1", func(j *model.Job) error {
		j.Status = model.JobStatusRunning
		j.CurrentStage = "extract"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.JobStatusRunning {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.UpdatedAt.After(got.UpdatedAt) && !updated.UpdatedAt.Equal(got.UpdatedAt) {
		t.Error("UpdatedAt not refreshed")
	}
}

func TestJobStoreConcurrentUpdates(t *testing.T) {
	s := NewJobStore()
	ctx := context.Background()
	if err := s.Create(ctx, model.NewJob("job-1", "a.mp4", "es", "auto")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, model.NewJob("job-2", "b.mp4", "fr", "auto")); err != nil {
		t.Fatalf("create: %v", err)
	}

	const rounds = 200
	var wg sync.WaitGroup
	for _, id := range []string{"job-1", "job-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, _ = s.Update(ctx, id, func(j *model.Job) error {
					j.Progress++
					return nil
				})
			}
		}(id)
	}
	// Concurrent polling readers must always see consistent snapshots.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if j, err := s.Get(ctx, "job-1"); err != nil || j.Progress < 0 || j.Progress > rounds {
				t.Errorf("inconsistent read: %+v err=%v", j, err)
				return
			}
		}
	}()
	wg.Wait()

	for _, id := range []string{"job-1", "job-2"} {
		j, _ := s.Get(ctx, id)
		if j.Progress != rounds {
			t.Errorf("%s: lost updates, progress = %d want %d", id, j.Progress, rounds)
		}
	}
}

func TestJobStoreList(t *testing.T) {
	s := NewJobStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Create(ctx, model.NewJob(id, id+".mp4", "es", "auto")); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(jobs))
	}
}
