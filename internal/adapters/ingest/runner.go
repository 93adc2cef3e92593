package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/logger"
)

// Default runner configuration constants.
const (
	runnerShutdownTimeout = 5 * time.Second
)

// Processor is the pipeline entry point the runner drives.
type Processor interface {
	ProcessFrame(ctx context.Context, f *model.Frame) error
}

// Runner consumes frames from a queue and feeds them to the processor one
// at a time. The pipeline is not reentrant, so exactly one runner must
// own it.
type Runner struct {
	queue Queue
	proc  Processor

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRunner creates a Runner over the queue and processor.
func NewRunner(queue Queue, proc Processor) *Runner {
	return &Runner{
		queue:    queue,
		proc:     proc,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Named("runner"),
	}
}

// Run consumes frames until the context is canceled, the queue closes, or
// Shutdown is called.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	frames := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := r.proc.ProcessFrame(ctx, f); err != nil {
				r.logger.Error(ctx, "process frame", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the runner and waits for the in-flight frame to finish.
func (r *Runner) Shutdown(ctx context.Context) error {
	close(r.shutdown)

	select {
	case <-r.done:
		return nil
	case <-time.After(runnerShutdownTimeout):
		return fmt.Errorf("runner shutdown timed out")
	case <-ctx.Done():
		return fmt.Errorf("runner shutdown: %w", ctx.Err())
	}
}
