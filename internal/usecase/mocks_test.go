package usecase

import (
	"context"
	"fmt"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"
	"voxdub/internal/domain/ports/repository"
)

// mockLifecycle marks chosen jobs as swept.
type mockLifecycle struct {
	swept map[string]bool
}

func (m *mockLifecycle) Register(jobID, path string, category repository.FileCategory) {}
func (m *mockLifecycle) Sweep(ctx context.Context, now time.Time) (int, error)         { return 0, nil }
func (m *mockLifecycle) Swept(jobID string) bool                                       { return m.swept[jobID] }

// mockCanceler records cancel calls.
type mockCanceler struct {
	calls []string
	err   error
}

func (m *mockCanceler) Cancel(ctx context.Context, jobID string) error {
	m.calls = append(m.calls, jobID)
	return m.err
}

// mockProvider implements the synthesis port for voice management tests.
type mockProvider struct {
	name   string
	caps   []model.Capability
	voices map[string]*model.ReferenceVoice
	addErr error
}

func newMockProvider(name string, caps ...model.Capability) *mockProvider {
	return &mockProvider{name: name, caps: caps, voices: map[string]*model.ReferenceVoice{}}
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Descriptor() model.ProviderDescriptor {
	return model.ProviderDescriptor{Name: m.name, Capabilities: m.caps}
}

func (m *mockProvider) Probe(ctx context.Context) error { return nil }

func (m *mockProvider) Synthesize(ctx context.Context, req adapter.SynthesisRequest) (string, error) {
	return req.OutputPath, nil
}

func (m *mockProvider) AddReferenceVoice(ctx context.Context, voice *model.ReferenceVoice) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.voices[voice.VoiceID] = voice
	return nil
}

func (m *mockProvider) ListReferenceVoices(ctx context.Context) ([]*model.ReferenceVoice, error) {
	out := make([]*model.ReferenceVoice, 0, len(m.voices))
	for _, v := range m.voices {
		out = append(out, v)
	}
	return out, nil
}

func (m *mockProvider) DeleteReferenceVoice(ctx context.Context, voiceID string) error {
	if _, ok := m.voices[voiceID]; !ok {
		return fmt.Errorf("voice %s: %w", voiceID, domain.ErrNotFound)
	}
	delete(m.voices, voiceID)
	return nil
}

// mockRegistry serves mock providers by name.
type mockRegistry struct {
	providers map[string]*mockProvider
	cloning   string
}

func (m *mockRegistry) Get(name string) (adapter.SynthesisProvider, error) {
	p, ok := m.providers[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRegistry) CloningProvider() (adapter.SynthesisProvider, error) {
	if m.cloning == "" {
		return nil, domain.ErrCapabilityMismatch
	}
	return m.providers[m.cloning], nil
}
