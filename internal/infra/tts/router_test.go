package tts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// ---- Fakes ----

type fakeProvider struct {
	name         string
	capabilities []model.Capability
	probeErr     error
	synthErr     error

	calls    int
	lastText string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Descriptor() model.ProviderDescriptor {
	return model.ProviderDescriptor{Name: f.name, DisplayName: f.name, Capabilities: f.capabilities}
}

func (f *fakeProvider) Probe(ctx context.Context) error { return f.probeErr }

func (f *fakeProvider) Synthesize(ctx context.Context, req adapter.SynthesisRequest) (string, error) {
	f.calls++
	f.lastText = req.Text
	if f.synthErr != nil {
		return "", f.synthErr
	}
	return req.OutputPath, nil
}

func (f *fakeProvider) AddReferenceVoice(ctx context.Context, v *model.ReferenceVoice) error {
	return domain.ErrCapabilityMismatch
}
func (f *fakeProvider) ListReferenceVoices(ctx context.Context) ([]*model.ReferenceVoice, error) {
	return nil, domain.ErrCapabilityMismatch
}
func (f *fakeProvider) DeleteReferenceVoice(ctx context.Context, id string) error {
	return domain.ErrCapabilityMismatch
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func cloudCaps() []model.Capability {
	return []model.Capability{
		model.CapabilityVoiceCloning,
		model.CapabilityEmotionMarkers,
		model.CapabilityStreaming,
	}
}

func newTestRouter(t *testing.T, primary, secondary adapter.SynthesisProvider) *Router {
	t.Helper()
	reg, err := NewRegistry(ProviderAuto, newTestLogger(), primary, secondary)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewRouter(reg, newTestLogger())
}

// ---- Tests ----

func TestRouterAutoPrefersPrimary(t *testing.T) {
	primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps()}
	secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
	router := newTestRouter(t, primary, secondary)

	used, path, err := router.Synthesize(context.Background(), ProviderAuto, adapter.SynthesisRequest{
		Text: "hola", Language: "es", OutputPath: "/tmp/out.wav",
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if used != "fish_audio" {
		t.Errorf("used provider: got %q want fish_audio", used)
	}
	if path != "/tmp/out.wav" {
		t.Errorf("audio path: got %q", path)
	}
	if secondary.calls != 0 {
		t.Error("secondary should not have been called")
	}
}

func TestRouterAutoFallsBackOnFailure(t *testing.T) {
	t.Run("probe failure", func(t *testing.T) {
		primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps(), probeErr: errors.New("connection refused")}
		secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
		router := newTestRouter(t, primary, secondary)

		used, _, err := router.Synthesize(context.Background(), ProviderAuto, adapter.SynthesisRequest{
			Text: "hola", Language: "es", OutputPath: "/tmp/out.wav",
		})
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		if used != "coqui" {
			t.Errorf("used provider: got %q want coqui", used)
		}
	})

	t.Run("synthesis failure", func(t *testing.T) {
		primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps(), synthErr: errors.New("server error")}
		secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
		router := newTestRouter(t, primary, secondary)

		used, _, err := router.Synthesize(context.Background(), ProviderAuto, adapter.SynthesisRequest{
			Text: "hola", Language: "es", OutputPath: "/tmp/out.wav",
		})
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		if used != "coqui" {
			t.Errorf("used provider: got %q want coqui", used)
		}
		if primary.calls != 1 {
			t.Errorf("primary calls: got %d want 1", primary.calls)
		}
	})
}

func TestRouterAutoExhaustedAggregatesCauses(t *testing.T) {
	primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps(), probeErr: errors.New("no credentials")}
	secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}, synthErr: errors.New("model load failed")}
	router := newTestRouter(t, primary, secondary)

	_, _, err := router.Synthesize(context.Background(), ProviderAuto, adapter.SynthesisRequest{
		Text: "hola", Language: "es", OutputPath: "/tmp/out.wav",
	})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	for _, want := range []string{"fish_audio", "no credentials", "coqui", "model load failed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("aggregated error missing %q: %v", want, err)
		}
	}
}

func TestRouterExplicitProviderNoFallback(t *testing.T) {
	primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps(), probeErr: errors.New("unreachable")}
	secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
	router := newTestRouter(t, primary, secondary)

	_, _, err := router.Synthesize(context.Background(), "fish_audio", adapter.SynthesisRequest{
		Text: "hola", Language: "es", OutputPath: "/tmp/out.wav",
	})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if secondary.calls != 0 {
		t.Error("explicit provider choice must not fall back")
	}
}

func TestRouterUnknownExplicitProvider(t *testing.T) {
	router := newTestRouter(t,
		&fakeProvider{name: "fish_audio", capabilities: cloudCaps()},
		&fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}})

	_, _, err := router.Synthesize(context.Background(), "espeak", adapter.SynthesisRequest{
		Text: "hola", Language: "es", OutputPath: "/tmp/out.wav",
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRouterCapabilityMismatchFailsFast(t *testing.T) {
	primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps()}
	secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
	router := newTestRouter(t, primary, secondary)

	cases := []struct {
		name string
		req  adapter.SynthesisRequest
	}{
		{"emotion", adapter.SynthesisRequest{Text: "x", Emotion: "angry", OutputPath: "/tmp/o.wav"}},
		{"streaming", adapter.SynthesisRequest{Text: "x", Streaming: true, OutputPath: "/tmp/o.wav"}},
		{"cloning", adapter.SynthesisRequest{Text: "x", ReferenceAudio: "/tmp/ref.wav", OutputPath: "/tmp/o.wav"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := router.Synthesize(context.Background(), "coqui", tc.req)
			if !errors.Is(err, domain.ErrCapabilityMismatch) {
				t.Errorf("expected ErrCapabilityMismatch, got %v", err)
			}
			if secondary.calls != 0 {
				t.Error("provider must not be dispatched on capability mismatch")
			}
		})
	}
}

func TestRouterEmotionWrapping(t *testing.T) {
	primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps()}
	secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
	router := newTestRouter(t, primary, secondary)

	_, _, err := router.Synthesize(context.Background(), "fish_audio", adapter.SynthesisRequest{
		Text: "hello there", Emotion: "excited", OutputPath: "/tmp/o.wav",
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if primary.lastText != "[excited]hello there[/excited]" {
		t.Errorf("emotion wrapping: got %q", primary.lastText)
	}

	_, _, err = router.Synthesize(context.Background(), "fish_audio", adapter.SynthesisRequest{
		Text: "hello", Emotion: "enraged", OutputPath: "/tmp/o.wav",
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown emotion: expected ErrInvalidArgument, got %v", err)
	}
}

func TestRegistryDefault(t *testing.T) {
	reg, err := NewRegistry(ProviderAuto, newTestLogger(),
		&fakeProvider{name: "fish_audio", capabilities: cloudCaps()},
		&fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	if err := reg.SetDefault("coqui"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if got := reg.Default(); got != "coqui" {
		t.Errorf("default: got %q want coqui", got)
	}
	if err := reg.SetDefault("espeak"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown default: expected ErrInvalidArgument, got %v", err)
	}
}

func TestRegistryAvailabilityCache(t *testing.T) {
	primary := &fakeProvider{name: "fish_audio", capabilities: cloudCaps(), probeErr: errors.New("down")}
	secondary := &fakeProvider{name: "coqui", capabilities: []model.Capability{model.CapabilityOffline}}
	reg, err := NewRegistry(ProviderAuto, newTestLogger(), primary, secondary)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	reg.RefreshAvailability(context.Background())
	descriptors := reg.Descriptors()
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].Name != "fish_audio" || descriptors[0].Available {
		t.Errorf("fish_audio should be unavailable: %+v", descriptors[0])
	}
	if descriptors[1].Name != "coqui" || !descriptors[1].Available {
		t.Errorf("coqui should be available: %+v", descriptors[1])
	}
}
