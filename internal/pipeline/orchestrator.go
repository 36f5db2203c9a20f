package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"
	"voxdub/internal/domain/ports/repository"
	"voxdub/internal/infra/metrics"
	"voxdub/internal/infra/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// TaskQueue admits jobs into the bounded worker pool.
type TaskQueue interface {
	Submit(task worker.Task) error
}

// ProviderCatalog resolves provider names at submission time so an unknown
// explicit provider is rejected before a job exists.
type ProviderCatalog interface {
	Get(name string) (adapter.SynthesisProvider, error)
}

// SubmitOptions are the caller-supplied knobs of one dubbing request.
type SubmitOptions struct {
	TargetLanguage string
	SourceLanguage string // "" means detect
	Provider       string // "" or "auto" for routed selection
	VoiceID        string
	ReferenceAudio string
	ReferenceText  string
	Emotion        string
	Streaming      bool
}

type pendingJob struct {
	opts       SubmitOptions
	uploadPath string
}

// Orchestrator owns the job lifecycle: validation, admission, stage
// execution, and every transition written to the job store.
type Orchestrator struct {
	store     repository.JobStore
	files     repository.FileLifecycle
	queue     TaskQueue
	providers ProviderCatalog
	stages    []Stage

	uploadDir string
	tempDir   string
	outputDir string
	maxUpload int64 // bytes

	mu       sync.Mutex
	pending  map[string]pendingJob
	canceled map[string]bool

	log *zerolog.Logger
}

func NewOrchestrator(
	store repository.JobStore,
	files repository.FileLifecycle,
	queue TaskQueue,
	providers ProviderCatalog,
	stages []Stage,
	uploadDir, tempDir, outputDir string,
	maxUploadMB int64,
	logger *zerolog.Logger,
) *Orchestrator {
	orcLog := logger.With().Str("component", "Orchestrator").Logger()
	return &Orchestrator{
		store:     store,
		files:     files,
		queue:     queue,
		providers: providers,
		stages:    stages,
		uploadDir: uploadDir,
		tempDir:   tempDir,
		outputDir: outputDir,
		maxUpload: maxUploadMB * 1024 * 1024,
		pending:   map[string]pendingJob{},
		canceled:  map[string]bool{},
		log:       &orcLog,
	}
}

// Submit validates the request, persists the upload, creates the job record
// and enqueues it. Returns the new job id. Every validation failure happens
// before any job exists.
func (o *Orchestrator) Submit(ctx context.Context, src io.Reader, filename string, size int64, opts SubmitOptions) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !videoExtensions[ext] {
		return "", fmt.Errorf("unsupported video format %q: %w", ext, domain.ErrInvalidArgument)
	}
	if o.maxUpload > 0 && size > o.maxUpload {
		return "", fmt.Errorf("upload of %d bytes exceeds limit: %w", size, domain.ErrInvalidArgument)
	}
	if !model.ValidTargetLanguage(opts.TargetLanguage) {
		return "", fmt.Errorf("unsupported target language %q: %w", opts.TargetLanguage, domain.ErrInvalidArgument)
	}
	if opts.Provider != "" && opts.Provider != "auto" {
		if _, err := o.providers.Get(opts.Provider); err != nil {
			return "", fmt.Errorf("unknown provider %q: %w", opts.Provider, domain.ErrInvalidArgument)
		}
	}
	if opts.Emotion != "" && !model.ValidEmotion(opts.Emotion) {
		return "", fmt.Errorf("unknown emotion %q: %w", opts.Emotion, domain.ErrInvalidArgument)
	}

	jobID := uuid.NewString()

	// Reserve a queue slot before creating anything so saturation is a clean
	// rejection with no job record left behind. The task blocks on the gate
	// until the record is durably created.
	gate := make(chan bool, 1)
	task := func(ctx context.Context) error {
		if ok := <-gate; !ok {
			return nil
		}
		return o.Run(ctx, jobID)
	}
	if err := o.queue.Submit(task); err != nil {
		return "", fmt.Errorf("admit job: %w", err)
	}

	uploadPath := filepath.Join(o.uploadDir, jobID+ext)
	if err := writeUpload(uploadPath, src); err != nil {
		gate <- false
		return "", fmt.Errorf("persist upload: %w", err)
	}

	job := model.NewJob(jobID, filename, opts.TargetLanguage, opts.Provider)
	if opts.SourceLanguage != "" {
		job.SourceLanguage = opts.SourceLanguage
	}
	job.AddArtifact("upload", uploadPath)
	if err := o.store.Create(ctx, job); err != nil {
		gate <- false
		os.Remove(uploadPath)
		return "", fmt.Errorf("create job: %w", err)
	}
	o.files.Register(jobID, uploadPath, repository.FileUpload)

	o.mu.Lock()
	o.pending[jobID] = pendingJob{opts: opts, uploadPath: uploadPath}
	o.mu.Unlock()

	metrics.IncDubJob("queued")
	o.log.Info().
		Str("job_id", jobID).
		Str("target_language", opts.TargetLanguage).
		Str("provider", job.ProviderRequested).
		Msg("job submitted")

	gate <- true
	return jobID, nil
}

// Run executes the stage sequence for one job, writing every observable
// transition through the store. Exactly one terminal transition happens.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	defer func() {
		o.mu.Lock()
		delete(o.pending, jobID)
		delete(o.canceled, jobID)
		o.mu.Unlock()
	}()

	o.mu.Lock()
	p := o.pending[jobID]
	o.mu.Unlock()

	job, err := o.store.Update(ctx, jobID, func(j *model.Job) error {
		if j.Status.Terminal() {
			return domain.ErrJobTerminal
		}
		j.Status = model.JobStatusRunning
		return nil
	})
	if err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}
	metrics.IncDubJob("running")

	sc := &StageContext{
		JobID:          jobID,
		WorkDir:        o.tempDir,
		OutputDir:      o.outputDir,
		VideoPath:      job.ArtifactPaths["upload"],
		Filename:       job.Filename,
		SourceLanguage: job.SourceLanguage,
		TargetLanguage: job.TargetLanguage,
		Provider:       job.ProviderRequested,
		VoiceID:        p.opts.VoiceID,
		ReferenceAudio: p.opts.ReferenceAudio,
		ReferenceText:  p.opts.ReferenceText,
		Emotion:        p.opts.Emotion,
		Streaming:      p.opts.Streaming,
	}

	for _, st := range o.stages {
		if o.isCanceled(jobID) {
			o.fail(ctx, jobID, fmt.Errorf("canceled before %s: %w", st.Name(), domain.ErrCanceled))
			return nil
		}

		if _, err := o.store.Update(ctx, jobID, func(j *model.Job) error {
			j.CurrentStage = st.Name()
			return nil
		}); err != nil {
			return fmt.Errorf("enter stage %s: %w", st.Name(), err)
		}

		stageLog := o.log.With().Str("job_id", jobID).Str("stage", st.Name()).Logger()
		stageLog.Info().Msg("stage started")

		start := time.Now()
		runErr := st.Run(ctx, sc)
		metrics.ObserveStage(st.Name(), time.Since(start).Seconds(), runErr == nil)

		if runErr != nil {
			stageLog.Error().Err(runErr).Msg("stage failed")
			o.fail(ctx, jobID, runErr)
			return nil
		}

		if path := sc.Artifact(st.Name()); path != "" {
			category := repository.FileIntermediate
			if st.Name() == StageEncode {
				category = repository.FileOutput
			}
			o.files.Register(jobID, path, category)
		}
		if _, err := o.store.Update(ctx, jobID, func(j *model.Job) error {
			if path := sc.Artifact(st.Name()); path != "" {
				j.AddArtifact(st.Name(), path)
			}
			j.Progress += st.Weight()
			j.SourceLanguage = sc.SourceLanguage
			if sc.ProviderUsed != "" {
				j.ProviderUsed = sc.ProviderUsed
			}
			return nil
		}); err != nil {
			return fmt.Errorf("finish stage %s: %w", st.Name(), err)
		}
		stageLog.Info().Dur("took", time.Since(start)).Msg("stage finished")
	}

	now := time.Now()
	if _, err := o.store.Update(ctx, jobID, func(j *model.Job) error {
		j.Status = model.JobStatusCompleted
		j.CurrentStage = ""
		j.Progress = 100
		j.CompletedAt = &now
		return nil
	}); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	metrics.IncDubJob("completed")
	o.log.Info().Str("job_id", jobID).Msg("job completed")
	return nil
}

// Cancel requests a best-effort stop. The flag is honored between stages; a
// mid-stage collaborator call runs to completion first.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	o.mu.Lock()
	o.canceled[jobID] = true
	o.mu.Unlock()
	o.log.Info().Str("job_id", jobID).Msg("cancellation requested")
	return nil
}

func (o *Orchestrator) isCanceled(jobID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canceled[jobID]
}

// fail records the terminal failure, freezing progress and keeping every
// artifact produced so far for post-mortem inspection.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) {
	now := time.Now()
	_, err := o.store.Update(ctx, jobID, func(j *model.Job) error {
		if j.Status.Terminal() {
			return domain.ErrJobTerminal
		}
		j.Status = model.JobStatusFailed
		j.Error = &model.JobError{
			Kind:    domain.KindOf(cause),
			Message: cause.Error(),
		}
		j.CompletedAt = &now
		return nil
	})
	if err != nil {
		o.log.Error().Err(err).Str("job_id", jobID).Msg("could not record job failure")
		return
	}
	metrics.IncDubJob("failed")
}

func writeUpload(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
