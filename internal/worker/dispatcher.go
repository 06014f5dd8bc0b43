// Package worker runs accepted searches in the background on a bounded
// goroutine pool. The HTTP handler submits and returns immediately; the
// pipeline runs detached from the request context.
package worker

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

// Runner executes the pipeline for one accepted search.
type Runner interface {
	Execute(ctx context.Context, searchID uuid.UUID, req domain.SearchRequest) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, searchID uuid.UUID, req domain.SearchRequest) error

func (f RunnerFunc) Execute(ctx context.Context, searchID uuid.UUID, req domain.SearchRequest) error {
	return f(ctx, searchID, req)
}

// Dispatcher submits search runs to a fixed-size worker pool.
type Dispatcher struct {
	pool   *ants.Pool
	runner Runner
	logger zerolog.Logger

	// baseCtx is the lifetime context for dispatched runs, detached from
	// any submitting request.
	baseCtx context.Context
}

// NewDispatcher creates a dispatcher backed by a pool of size workers.
// A non-positive size defaults to half the CPU count, minimum one.
func NewDispatcher(ctx context.Context, size int, runner Runner, logger zerolog.Logger) (*Dispatcher, error) {
	if size <= 0 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &Dispatcher{
		pool:    pool,
		runner:  runner,
		logger:  logger.With().Str("component", "search_dispatcher").Logger(),
		baseCtx: ctx,
	}, nil
}

// Dispatch enqueues a search run. It returns once the task is accepted by
// the pool; the run itself happens on a pool goroutine with the
// dispatcher's lifetime context. Execution errors are logged, not
// returned: the search record carries the failure state.
func (d *Dispatcher) Dispatch(searchID uuid.UUID, req domain.SearchRequest) error {
	err := d.pool.Submit(func() {
		if err := d.runner.Execute(d.baseCtx, searchID, req); err != nil {
			d.logger.Error().Err(err).
				Str("search_id", searchID.String()).
				Msg("Search run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("submit search %s: %w", searchID, err)
	}
	return nil
}

// Running reports the number of searches currently executing.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Close releases the pool. Queued tasks that have not started are dropped;
// running tasks finish.
func (d *Dispatcher) Close() {
	d.pool.Release()
}
