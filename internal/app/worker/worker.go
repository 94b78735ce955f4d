package worker

import (
	"context"

	"powermon/internal/config"
)

// Pool bounds how many background tasks run at once
type Pool interface {
	Acquire(ctx context.Context) error
	Release()
	Go(ctx context.Context, fn func()) error
}

type pool struct {
	sem chan struct{}
}

// NewWorkerPool creates a pool sized by concurrency.workers
func NewWorkerPool(cfg *config.Config) Pool {
	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	return &pool{
		sem: make(chan struct{}, workers),
	}
}

// Acquire takes a slot, blocking while the pool is full or returning the context error if cancelled first
func (w *pool) Acquire(ctx context.Context) error {
	select {
	case w.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot
func (w *pool) Release() {
	<-w.sem
}

// Go waits for a slot and runs fn on its own goroutine, releasing the slot when fn returns
func (w *pool) Go(ctx context.Context, fn func()) error {
	if err := w.Acquire(ctx); err != nil {
		return err
	}

	go func() {
		defer w.Release()

		fn()
	}()

	return nil
}
