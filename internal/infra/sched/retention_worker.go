package sched

import (
	"context"
	"time"

	"voxdub/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// RetentionWorker periodically sweeps expired job files.
type RetentionWorker struct {
	interval time.Duration
	files    repository.FileLifecycle
	log      *zerolog.Logger
}

func NewRetentionWorker(interval time.Duration, files repository.FileLifecycle, logger *zerolog.Logger) *RetentionWorker {
	retLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval: interval,
		files:    files,
		log:      &retLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.files.Sweep(ctx, time.Now()); err != nil {
				w.log.Error().Err(err).Msg("retention sweep error")
			}
		}
	}
}
