package usecase

import (
	"context"

	"voxdub/internal/domain/model"
)

// ProviderRegistry exposes the provider catalog for introspection.
type ProviderRegistry interface {
	Descriptors() []model.ProviderDescriptor
	Default() string
	SetDefault(name string) error
	RefreshAvailability(ctx context.Context)
}

// ProviderUseCase surfaces provider capabilities and the routing default.
type ProviderUseCase struct {
	registry ProviderRegistry
}

func NewProviderUseCase(registry ProviderRegistry) *ProviderUseCase {
	return &ProviderUseCase{registry: registry}
}

// Describe returns every provider descriptor with cached availability.
func (uc *ProviderUseCase) Describe(ctx context.Context) ([]model.ProviderDescriptor, string) {
	return uc.registry.Descriptors(), uc.registry.Default()
}

// SetDefault changes the routing default preference.
func (uc *ProviderUseCase) SetDefault(ctx context.Context, name string) error {
	return uc.registry.SetDefault(name)
}
