// Package ingest bounds the frame-delivery boundary between the camera
// thread and the pipeline. Frames arriving faster than the pipeline
// consumes them displace the oldest queued frame rather than blocking the
// capture side.
package ingest

import (
	"context"
	"sync"

	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 8
)

// Queue provides non-blocking enqueue and channel-based dequeue of frames.
type Queue interface {
	// Enqueue adds a frame, dropping the oldest queued frame when full.
	// Returns false only if the queue is closed.
	Enqueue(ctx context.Context, f *model.Frame) bool

	// Dequeue returns a channel delivering frames in arrival order. The
	// channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan *model.Frame

	// Len returns the current number of queued frames.
	Len(ctx context.Context) int

	// Close shuts the queue down; no further frames are accepted.
	Close() error
}

// FrameQueue implements Queue using a buffered channel with a drop-oldest
// overflow policy.
type FrameQueue struct {
	frames   chan *model.Frame
	capacity int

	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the FrameQueue.
type Option func(*FrameQueue)

// WithCapacity sets the maximum number of buffered frames.
func WithCapacity(capacity int) Option {
	return func(q *FrameQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// NewFrameQueue creates a FrameQueue with configuration options.
func NewFrameQueue(opts ...Option) *FrameQueue {
	q := &FrameQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.frames = make(chan *model.Frame, q.capacity)

	metrics.UpdateIngestQueueSize(0)

	return q
}

// Enqueue adds a frame, evicting the oldest when the buffer is full.
func (q *FrameQueue) Enqueue(ctx context.Context, f *model.Frame) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	for {
		select {
		case q.frames <- f:
			metrics.UpdateIngestQueueSize(len(q.frames))
			return true
		default:
		}

		select {
		case <-q.frames:
			metrics.RecordFrameDropped()
		case <-ctx.Done():
			return false
		default:
		}
	}
}

// Dequeue returns the frame delivery channel.
func (q *FrameQueue) Dequeue(ctx context.Context) <-chan *model.Frame {
	out := make(chan *model.Frame)
	go func() {
		defer close(out)
		for f := range q.frames {
			select {
			case out <- f:
				metrics.UpdateIngestQueueSize(len(q.frames))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued frames.
func (q *FrameQueue) Len(ctx context.Context) int {
	return len(q.frames)
}

// Close shuts the queue down.
func (q *FrameQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.frames)
	q.closed = true
	return nil
}
