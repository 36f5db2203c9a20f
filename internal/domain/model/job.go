package model

import (
	"time"

	"voxdub/internal/domain"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobError is the final error payload of a failed job.
type JobError struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Job is one dubbing request. The job store holds the canonical record;
// only the orchestrator driving the job mutates it.
type Job struct {
	ID                string            `json:"job_id"`
	Status            JobStatus         `json:"status"`
	CurrentStage      string            `json:"current_stage,omitempty"`
	Progress          int               `json:"progress"`
	SourceLanguage    string            `json:"source_language"`
	TargetLanguage    string            `json:"target_language"`
	ProviderRequested string            `json:"tts_provider"`
	ProviderUsed      string            `json:"tts_provider_used,omitempty"`
	Filename          string            `json:"filename"`
	ArtifactPaths     map[string]string `json:"artifact_paths"`
	Error             *JobError         `json:"error,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

// NewJob creates a queued job record at submission time.
func NewJob(id, filename, targetLanguage, provider string) *Job {
	now := time.Now()
	if provider == "" {
		provider = "auto"
	}
	return &Job{
		ID:                id,
		Status:            JobStatusQueued,
		Progress:          0,
		SourceLanguage:    "auto",
		TargetLanguage:    targetLanguage,
		ProviderRequested: provider,
		Filename:          filename,
		ArtifactPaths:     map[string]string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// AddArtifact records a stage output. Entries are append-only; a stage
// never replaces another stage's artifact.
func (j *Job) AddArtifact(stage, path string) {
	if j.ArtifactPaths == nil {
		j.ArtifactPaths = map[string]string{}
	}
	if _, exists := j.ArtifactPaths[stage]; exists {
		return
	}
	j.ArtifactPaths[stage] = path
}

// Clone returns a deep copy so store readers never alias the canonical record.
func (j *Job) Clone() *Job {
	cp := *j
	cp.ArtifactPaths = make(map[string]string, len(j.ArtifactPaths))
	for k, v := range j.ArtifactPaths {
		cp.ArtifactPaths[k] = v
	}
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
