// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"sync"

	"voxdub/internal/domain"
	"voxdub/internal/infra/metrics"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Pool bounds the number of simultaneously running jobs. Submitted tasks
// wait in a FIFO queue until a worker frees; saturation of the queue itself
// is surfaced to the caller instead of silently dropping work.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
	log  *zerolog.Logger
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	poolLog := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		jobs: make(chan Task, queueSize),
		quit: make(chan struct{}),
		n:    workers,
		log:  &poolLog,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					metrics.SetQueuedJobs(len(p.jobs))
					if err := task(ctx); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("task error")
					}
				}
			}
		}(i)
	}
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit enqueues a task in FIFO order. Returns domain.ErrQueueFull when the
// admission queue has no room left.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return domain.ErrInvalidArgument
	}
	select {
	case p.jobs <- task:
		metrics.SetQueuedJobs(len(p.jobs))
		return nil
	default:
		return domain.ErrQueueFull
	}
}
