package sched

import (
	"context"
	"time"

	"voxdub/internal/infra/tts"

	"github.com/rs/zerolog"
)

// AvailabilityWorker re-probes every speech provider on a fixed interval so
// routing decisions use fresh availability instead of probing per request.
type AvailabilityWorker struct {
	interval time.Duration
	registry *tts.Registry
	log      *zerolog.Logger
}

func NewAvailabilityWorker(interval time.Duration, registry *tts.Registry, logger *zerolog.Logger) *AvailabilityWorker {
	avLog := logger.With().Str("component", "AvailabilityWorker").Logger()
	return &AvailabilityWorker{
		interval: interval,
		registry: registry,
		log:      &avLog,
	}
}

func (w *AvailabilityWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting availability worker")
	w.registry.RefreshAvailability(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping availability worker")
			return ctx.Err()
		case <-ticker.C:
			w.registry.RefreshAvailability(ctx)
		}
	}
}
