package strategy

import (
	"sync"

	"github.com/rs/zerolog"
)

// BackgroundTasks runs detached work that races independently of an already
// served response. Task failures are logged and never surface to the caller.
type BackgroundTasks struct {
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewBackgroundTasks creates a background task runner.
func NewBackgroundTasks(logger zerolog.Logger) *BackgroundTasks {
	return &BackgroundTasks{logger: logger}
}

// Go schedules fn as a detached task. The caller is never blocked and never
// observes the task's error.
func (b *BackgroundTasks) Go(name string, fn func() error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := fn(); err != nil {
			backgroundFailures.WithLabelValues(name).Inc()
			b.logger.Warn().Err(err).Str("task", name).Msg("Background task failed")
		}
	}()
}

// Wait blocks until all scheduled tasks have finished. Used by tests and
// during shutdown; request handling never calls it.
func (b *BackgroundTasks) Wait() {
	b.wg.Wait()
}
