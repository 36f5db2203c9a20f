package adapter

import (
	"context"

	"voxdub/internal/domain/model"
)

// SynthesisRequest carries everything a provider needs for one synthesis call.
type SynthesisRequest struct {
	Text       string
	Language   string
	OutputPath string

	// VoiceID selects a pre-registered reference voice.
	VoiceID string
	// ReferenceAudio/ReferenceText enable one-shot cloning without registration.
	ReferenceAudio string
	ReferenceText  string
	// Emotion is one of model.EmotionMarkers, or empty.
	Emotion string
	// Streaming asks the provider to stream audio chunks as they are produced.
	Streaming bool
}

// SynthesisProvider is the uniform capability contract every speech-synthesis
// backend implements. Adapters must be safe for concurrent use by multiple
// simultaneously-running jobs.
type SynthesisProvider interface {
	Name() string
	Descriptor() model.ProviderDescriptor
	// Probe checks reachability and credentials. A non-nil error means the
	// provider must not be dispatched to.
	Probe(ctx context.Context) error
	// Synthesize produces exactly one audio artifact at req.OutputPath.
	Synthesize(ctx context.Context, req SynthesisRequest) (string, error)

	// Cloning surface. Providers without the voice_cloning capability return
	// domain.ErrCapabilityMismatch from all three.
	AddReferenceVoice(ctx context.Context, voice *model.ReferenceVoice) error
	ListReferenceVoices(ctx context.Context) ([]*model.ReferenceVoice, error)
	DeleteReferenceVoice(ctx context.Context, voiceID string) error
}
