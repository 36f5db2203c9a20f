// Package pipeline drives a dubbing job through its fixed stage sequence and
// owns every job state transition.
package pipeline

import "context"

// StageContext is the scratch state threaded through one job's stages. A
// stage reads prior artifacts and its input fields, records what it produces,
// and never touches the job store directly.
type StageContext struct {
	JobID     string
	WorkDir   string
	OutputDir string

	VideoPath string
	Filename  string

	SourceLanguage string // "auto" until transcription resolves it
	TargetLanguage string

	Transcript  string
	Translation string

	Provider     string // requested: "auto" or explicit name
	ProviderUsed string

	VoiceID        string
	ReferenceAudio string
	ReferenceText  string
	Emotion        string
	Streaming      bool

	artifacts map[string]string
	produced  []string
}

func (sc *StageContext) record(stage, path string) {
	if sc.artifacts == nil {
		sc.artifacts = map[string]string{}
	}
	sc.artifacts[stage] = path
	sc.produced = append(sc.produced, path)
}

// Artifact returns the path a prior stage produced, or "".
func (sc *StageContext) Artifact(stage string) string {
	return sc.artifacts[stage]
}

// Stage is one step of the dubbing sequence. Weight is the stage's share of
// overall progress; weights across the sequence sum to 100.
type Stage interface {
	Name() string
	Weight() int
	Run(ctx context.Context, sc *StageContext) error
}
