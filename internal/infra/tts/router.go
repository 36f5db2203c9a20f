package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"
	"voxdub/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Router selects a synthesis provider per request, validates requested
// capabilities, normalizes emotion markers, and falls back between providers
// in auto mode. It never mutates job state.
type Router struct {
	registry *Registry
	log      *zerolog.Logger
}

func NewRouter(registry *Registry, logger *zerolog.Logger) *Router {
	routerLog := logger.With().Str("component", "SynthesisRouter").Logger()
	return &Router{registry: registry, log: &routerLog}
}

// Synthesize resolves a provider for the request and produces one audio
// artifact. provider is ProviderAuto, an explicit name, or empty for the
// registry default. Returns the name of the provider actually used.
func (r *Router) Synthesize(ctx context.Context, provider string, req adapter.SynthesisRequest) (string, string, error) {
	if req.Emotion != "" && !model.ValidEmotion(req.Emotion) {
		return "", "", fmt.Errorf("unknown emotion %q: %w", req.Emotion, domain.ErrInvalidArgument)
	}
	if provider == "" {
		provider = r.registry.Default()
	}

	// Explicit choice is a contract: no silent fallback.
	if provider != ProviderAuto {
		p, err := r.registry.Get(provider)
		if err != nil {
			return "", "", fmt.Errorf("provider %q: %w", provider, domain.ErrInvalidArgument)
		}
		if err := r.validateCapabilities(p, req); err != nil {
			return "", "", err
		}
		if err := p.Probe(ctx); err != nil {
			return "", "", fmt.Errorf("%s: %v: %w", p.Name(), err, domain.ErrProviderUnavailable)
		}
		path, err := r.dispatch(ctx, p, req)
		if err != nil {
			return "", "", err
		}
		return p.Name(), path, nil
	}

	// Auto: walk the preference order, skipping providers that cannot serve
	// the request, falling back on failure, and aggregating every cause.
	var causes []string
	var previous string
	for _, p := range r.registry.Preference() {
		if err := r.validateCapabilities(p, req); err != nil {
			causes = append(causes, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		if err := p.Probe(ctx); err != nil {
			causes = append(causes, fmt.Sprintf("%s: probe failed: %v", p.Name(), err))
			if previous != "" {
				metrics.IncProviderFallback(previous, p.Name())
			}
			previous = p.Name()
			continue
		}
		path, err := r.dispatch(ctx, p, req)
		if err == nil {
			if previous != "" {
				metrics.IncProviderFallback(previous, p.Name())
				r.log.Warn().Str("from", previous).Str("to", p.Name()).Msg("fell back to secondary provider")
			}
			return p.Name(), path, nil
		}
		causes = append(causes, fmt.Sprintf("%s: %v", p.Name(), err))
		previous = p.Name()
	}
	return "", "", fmt.Errorf("all providers failed [%s]: %w",
		strings.Join(causes, "; "), domain.ErrProviderUnavailable)
}

// validateCapabilities fails fast when the request needs a feature the
// provider does not declare, rather than silently dropping it.
func (r *Router) validateCapabilities(p adapter.SynthesisProvider, req adapter.SynthesisRequest) error {
	d := p.Descriptor()
	if (req.VoiceID != "" || req.ReferenceAudio != "") && !d.Supports(model.CapabilityVoiceCloning) {
		return fmt.Errorf("%s does not support voice cloning: %w", p.Name(), domain.ErrCapabilityMismatch)
	}
	if req.Emotion != "" && !d.Supports(model.CapabilityEmotionMarkers) {
		return fmt.Errorf("%s does not support emotion markers: %w", p.Name(), domain.ErrCapabilityMismatch)
	}
	if req.Streaming && !d.Supports(model.CapabilityStreaming) {
		return fmt.Errorf("%s does not support streaming: %w", p.Name(), domain.ErrCapabilityMismatch)
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, p adapter.SynthesisProvider, req adapter.SynthesisRequest) (string, error) {
	// Exactly one marker per request, never nested.
	if req.Emotion != "" && p.Descriptor().Supports(model.CapabilityEmotionMarkers) {
		req.Text = FormatEmotion(req.Text, req.Emotion)
		req.Emotion = ""
	}

	start := time.Now()
	path, err := p.Synthesize(ctx, req)
	latency := time.Since(start)
	metrics.ObserveSynthCall(p.Name(), int(latency/time.Millisecond), err == nil)
	if err != nil {
		return "", fmt.Errorf("synthesize via %s: %w", p.Name(), err)
	}
	return path, nil
}

// FormatEmotion wraps text in an inline emotion marker pair.
func FormatEmotion(text, emotion string) string {
	e := strings.ToLower(emotion)
	return fmt.Sprintf("[%s]%s[/%s]", e, text, e)
}
