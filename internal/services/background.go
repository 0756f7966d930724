package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Background runs detached tasks that must outlive the request that spawned
// them. Tasks are attempted exactly once; their results are only logged.
// Wait closes the runner and lets the process drain pending tasks on
// shutdown.
type Background struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBackground returns an idle runner.
func NewBackground() *Background {
	return &Background{}
}

// Go starts fn on its own goroutine. The context handed to fn keeps the
// values of ctx (trace, logger) but is never canceled with it. A panic in fn
// is recovered and logged. Once Wait has been called, fn is dropped and Go
// reports false.
func (b *Background) Go(ctx context.Context, name string, fn func(context.Context)) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		log.Warn().Str("task", name).Msg("background task dropped: shutting down")
		return false
	}
	b.wg.Add(1)
	b.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("task", name).Interface("panic", r).Msg("background task panicked")
			}
		}()
		fn(detached)
	}()
	return true
}

// Wait stops accepting new tasks and blocks until every started task has
// returned or ctx is done. It may be called more than once.
func (b *Background) Wait(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
