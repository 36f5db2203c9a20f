// Package tts holds the speech-synthesis provider adapters and the router
// that selects between them.
package tts

import (
	"context"
	"sync"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"
	"voxdub/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// ProviderAuto selects a provider automatically with fallback.
const ProviderAuto = "auto"

// Registry is the closed set of configured synthesis providers, in fixed
// preference order. It caches the latest availability probe per provider and
// tracks the process-wide default selection.
type Registry struct {
	order  []adapter.SynthesisProvider
	byName map[string]adapter.SynthesisProvider

	mu          sync.RWMutex
	available   map[string]bool
	defaultName string

	log *zerolog.Logger
}

// NewRegistry builds a registry from providers in preference order.
// defaultName must be ProviderAuto or the name of one of the providers.
func NewRegistry(defaultName string, logger *zerolog.Logger, providers ...adapter.SynthesisProvider) (*Registry, error) {
	regLog := logger.With().Str("component", "ProviderRegistry").Logger()
	r := &Registry{
		byName:    make(map[string]adapter.SynthesisProvider, len(providers)),
		available: make(map[string]bool, len(providers)),
		log:       &regLog,
	}
	for _, p := range providers {
		if _, dup := r.byName[p.Name()]; dup {
			return nil, domain.ErrAlreadyExists
		}
		r.order = append(r.order, p)
		r.byName[p.Name()] = p
	}
	if err := r.SetDefault(defaultName); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the provider with the given name, or domain.ErrNotFound.
func (r *Registry) Get(name string) (adapter.SynthesisProvider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Preference returns providers in fallback order.
func (r *Registry) Preference() []adapter.SynthesisProvider {
	return r.order
}

// Default returns the current default selection (ProviderAuto or a name).
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// SetDefault changes the default selection. Explicit names must be known.
func (r *Registry) SetDefault(name string) error {
	if name != ProviderAuto {
		if _, ok := r.byName[name]; !ok {
			return domain.ErrInvalidArgument
		}
	}
	r.mu.Lock()
	r.defaultName = name
	r.mu.Unlock()
	return nil
}

// RefreshAvailability probes every provider and caches the results.
func (r *Registry) RefreshAvailability(ctx context.Context) {
	for _, p := range r.order {
		err := p.Probe(ctx)
		ok := err == nil
		r.mu.Lock()
		r.available[p.Name()] = ok
		r.mu.Unlock()
		metrics.SetProviderAvailable(p.Name(), ok)
		if err != nil {
			r.log.Debug().Err(err).Str("provider", p.Name()).Msg("availability probe failed")
		}
	}
}

// Available returns the cached probe result for a provider.
func (r *Registry) Available(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available[name]
}

// Descriptors returns every provider's descriptor with cached availability.
func (r *Registry) Descriptors() []model.ProviderDescriptor {
	out := make([]model.ProviderDescriptor, 0, len(r.order))
	for _, p := range r.order {
		d := p.Descriptor()
		d.Available = r.Available(p.Name())
		out = append(out, d)
	}
	return out
}

// CloningProvider returns the first provider in preference order that
// declares voice cloning, for the voice-registration surface.
func (r *Registry) CloningProvider() (adapter.SynthesisProvider, error) {
	for _, p := range r.order {
		if p.Descriptor().Supports(model.CapabilityVoiceCloning) {
			return p, nil
		}
	}
	return nil, domain.ErrCapabilityMismatch
}
