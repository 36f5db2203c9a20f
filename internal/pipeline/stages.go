package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxdub/internal/domain/ports/adapter"
)

const (
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageSynthesize = "synthesize"
	StageLipSync    = "lipsync"
	StageEncode     = "encode"
)

// Synthesizer routes one synthesis request to a provider and reports which
// provider actually served it.
type Synthesizer interface {
	Synthesize(ctx context.Context, provider string, req adapter.SynthesisRequest) (string, string, error)
}

// DefaultStages returns the full dubbing sequence in execution order.
func DefaultStages(extractor adapter.AudioExtractor, asr adapter.Transcriber, translator adapter.Translator, synth Synthesizer, lips adapter.LipSyncer, encoder adapter.Encoder) []Stage {
	return []Stage{
		&extractStage{media: extractor},
		&transcribeStage{asr: asr},
		&translateStage{translator: translator},
		&synthesizeStage{synth: synth},
		&lipSyncStage{lips: lips},
		&encodeStage{encoder: encoder},
	}
}

type extractStage struct {
	media adapter.AudioExtractor
}

func (s *extractStage) Name() string { return StageExtract }
func (s *extractStage) Weight() int  { return 15 }

func (s *extractStage) Run(ctx context.Context, sc *StageContext) error {
	out := filepath.Join(sc.WorkDir, sc.JobID+"_speech.wav")
	if err := s.media.ExtractAudio(ctx, sc.VideoPath, out); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	sc.record(StageExtract, out)
	return nil
}

type transcribeStage struct {
	asr adapter.Transcriber
}

func (s *transcribeStage) Name() string { return StageTranscribe }
func (s *transcribeStage) Weight() int  { return 20 }

func (s *transcribeStage) Run(ctx context.Context, sc *StageContext) error {
	tr, err := s.asr.Transcribe(ctx, sc.Artifact(StageExtract), sc.SourceLanguage)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	sc.Transcript = tr.Text
	if sc.SourceLanguage == "auto" && tr.DetectedLanguage != "" {
		sc.SourceLanguage = tr.DetectedLanguage
	}
	out := filepath.Join(sc.WorkDir, sc.JobID+"_transcript.txt")
	if err := os.WriteFile(out, []byte(tr.Text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	sc.record(StageTranscribe, out)
	return nil
}

type translateStage struct {
	translator adapter.Translator
}

func (s *translateStage) Name() string { return StageTranslate }
func (s *translateStage) Weight() int  { return 15 }

func (s *translateStage) Run(ctx context.Context, sc *StageContext) error {
	out, err := s.translator.Translate(ctx, sc.Transcript, sc.SourceLanguage, sc.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	sc.Translation = out
	path := filepath.Join(sc.WorkDir, sc.JobID+"_translation.txt")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write translation: %w", err)
	}
	sc.record(StageTranslate, path)
	return nil
}

type synthesizeStage struct {
	synth Synthesizer
}

func (s *synthesizeStage) Name() string { return StageSynthesize }
func (s *synthesizeStage) Weight() int  { return 20 }

func (s *synthesizeStage) Run(ctx context.Context, sc *StageContext) error {
	used, path, err := s.synth.Synthesize(ctx, sc.Provider, adapter.SynthesisRequest{
		Text:           sc.Translation,
		Language:       sc.TargetLanguage,
		OutputPath:     filepath.Join(sc.WorkDir, sc.JobID+"_dub.wav"),
		VoiceID:        sc.VoiceID,
		ReferenceAudio: sc.ReferenceAudio,
		ReferenceText:  sc.ReferenceText,
		Emotion:        sc.Emotion,
		Streaming:      sc.Streaming,
	})
	if err != nil {
		return err
	}
	sc.ProviderUsed = used
	sc.record(StageSynthesize, path)
	return nil
}

type lipSyncStage struct {
	lips adapter.LipSyncer
}

func (s *lipSyncStage) Name() string { return StageLipSync }
func (s *lipSyncStage) Weight() int  { return 20 }

func (s *lipSyncStage) Run(ctx context.Context, sc *StageContext) error {
	out := filepath.Join(sc.WorkDir, sc.JobID+"_synced.mp4")
	if err := s.lips.SyncLips(ctx, sc.VideoPath, sc.Artifact(StageSynthesize), out); err != nil {
		return fmt.Errorf("lip sync: %w", err)
	}
	sc.record(StageLipSync, out)
	return nil
}

type encodeStage struct {
	encoder adapter.Encoder
}

func (s *encodeStage) Name() string { return StageEncode }
func (s *encodeStage) Weight() int  { return 10 }

func (s *encodeStage) Run(ctx context.Context, sc *StageContext) error {
	ext := strings.ToLower(filepath.Ext(sc.Filename))
	if ext == "" {
		ext = ".mp4"
	}
	out := filepath.Join(sc.OutputDir, sc.JobID+"_dubbed"+ext)
	if err := s.encoder.Encode(ctx, sc.Artifact(StageLipSync), sc.Artifact(StageSynthesize), out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	sc.record(StageEncode, out)
	return nil
}
