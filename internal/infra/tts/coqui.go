package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.SynthesisProvider = (*CoquiProvider)(nil)

// coquiModels selects the synthesis model per language, with a multilingual
// fallback for everything else.
var coquiModels = map[string]string{
	"en": "tts_models/en/ljspeech/tacotron2-DDC",
	"es": "tts_models/es/mai/tacotron2-DDC",
	"fr": "tts_models/fr/mai/tacotron2-DDC",
	"de": "tts_models/de/thorsten/tacotron2-DDC",
}

const coquiMultilingualModel = "tts_models/multilingual/multi-dataset/your_tts"

// CoquiProvider runs the local coqui `tts` CLI. Fully offline, no cloning,
// no emotion markers, no streaming.
type CoquiProvider struct {
	binary string
	log    *zerolog.Logger
}

func NewCoquiProvider(binary string, logger *zerolog.Logger) *CoquiProvider {
	if binary == "" {
		binary = "tts"
	}
	coquiLog := logger.With().Str("component", "CoquiProvider").Logger()
	return &CoquiProvider{binary: binary, log: &coquiLog}
}

func (p *CoquiProvider) Name() string { return "coqui" }

func (p *CoquiProvider) Descriptor() model.ProviderDescriptor {
	return model.ProviderDescriptor{
		Name:           p.Name(),
		DisplayName:    "Coqui TTS",
		Capabilities:   []model.Capability{model.CapabilityOffline},
		RequiresAPIKey: false,
	}
}

func (p *CoquiProvider) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("tts binary not found: %w", err)
	}
	return nil
}

func (p *CoquiProvider) Synthesize(ctx context.Context, req adapter.SynthesisRequest) (string, error) {
	modelName, ok := coquiModels[req.Language]
	if !ok {
		modelName = coquiMultilingualModel
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", err
	}

	args := []string{
		"--text", req.Text,
		"--model_name", modelName,
		"--out_path", req.OutputPath,
	}
	if modelName == coquiMultilingualModel {
		args = append(args, "--language_idx", req.Language)
	}

	cmd := exec.CommandContext(ctx, p.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("coqui tts: %v: %s", err, tail(out))
	}
	if _, err := os.Stat(req.OutputPath); err != nil {
		return "", fmt.Errorf("coqui produced no audio file: %w", err)
	}
	return req.OutputPath, nil
}

func (p *CoquiProvider) AddReferenceVoice(ctx context.Context, voice *model.ReferenceVoice) error {
	return domain.ErrCapabilityMismatch
}

func (p *CoquiProvider) ListReferenceVoices(ctx context.Context) ([]*model.ReferenceVoice, error) {
	return nil, domain.ErrCapabilityMismatch
}

func (p *CoquiProvider) DeleteReferenceVoice(ctx context.Context, voiceID string) error {
	return domain.ErrCapabilityMismatch
}

// tail keeps the last part of noisy CLI output for error messages.
func tail(b []byte) []byte {
	const max = 400
	if len(b) > max {
		return b[len(b)-max:]
	}
	return b
}
