package adapter

import "context"

// External collaborators consumed by the pipeline. Each is a slow, possibly
// failing function; the orchestrator never inspects their internals. Any
// retry or backoff lives inside the adapter.

// AudioExtractor pulls the speech track out of a video file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
}

// Transcription is the result of a speech-recognition call.
type Transcription struct {
	Text             string
	DetectedLanguage string
}

// Transcriber converts speech audio to text, detecting the spoken language
// when the hint is "auto".
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (Transcription, error)
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// LipSyncer re-times lip movement in a video to match new audio.
type LipSyncer interface {
	SyncLips(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// Encoder muxes a video stream with a replacement audio track into the final
// downloadable file.
type Encoder interface {
	Encode(ctx context.Context, videoPath, audioPath, outputPath string) error
}
