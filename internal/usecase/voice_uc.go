package usecase

import (
	"context"
	"fmt"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"
)

// VoiceRegistry resolves cloning-capable providers.
type VoiceRegistry interface {
	Get(name string) (adapter.SynthesisProvider, error)
	CloningProvider() (adapter.SynthesisProvider, error)
}

// IDGenerator mints a voice id when the caller does not supply one.
type IDGenerator func() string

// VoiceUseCase manages reference voices on cloning-capable providers.
type VoiceUseCase struct {
	registry VoiceRegistry
	newID    IDGenerator
}

func NewVoiceUseCase(registry VoiceRegistry, newID IDGenerator) *VoiceUseCase {
	return &VoiceUseCase{registry: registry, newID: newID}
}

func (uc *VoiceUseCase) provider(name string) (adapter.SynthesisProvider, error) {
	if name == "" {
		return uc.registry.CloningProvider()
	}
	p, err := uc.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", name, domain.ErrInvalidArgument)
	}
	if !p.Descriptor().Supports(model.CapabilityVoiceCloning) {
		return nil, fmt.Errorf("provider %q: %w", name, domain.ErrCapabilityMismatch)
	}
	return p, nil
}

// Register stores a reference voice, generating an id when none is given.
// Re-registering an existing id overwrites the sample.
func (uc *VoiceUseCase) Register(ctx context.Context, voice *model.ReferenceVoice) (*model.ReferenceVoice, error) {
	if voice.AudioPath == "" {
		return nil, fmt.Errorf("reference audio is required: %w", domain.ErrInvalidArgument)
	}
	p, err := uc.provider(voice.Provider)
	if err != nil {
		return nil, err
	}
	if voice.VoiceID == "" {
		voice.VoiceID = uc.newID()
	}
	voice.Provider = p.Name()
	voice.CreatedAt = time.Now()
	if err := p.AddReferenceVoice(ctx, voice); err != nil {
		return nil, fmt.Errorf("register voice %s: %w", voice.VoiceID, err)
	}
	return voice, nil
}

// List returns every registered voice of the cloning provider.
func (uc *VoiceUseCase) List(ctx context.Context) ([]*model.ReferenceVoice, error) {
	p, err := uc.registry.CloningProvider()
	if err != nil {
		return nil, err
	}
	return p.ListReferenceVoices(ctx)
}

// Delete removes a registered voice. Unknown ids yield ErrNotFound.
func (uc *VoiceUseCase) Delete(ctx context.Context, voiceID string) error {
	p, err := uc.registry.CloningProvider()
	if err != nil {
		return err
	}
	return p.DeleteReferenceVoice(ctx, voiceID)
}
