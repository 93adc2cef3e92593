// Package repository keeps a bounded in-memory history of emitted
// heart-rate estimates for the HTTP surface. Nothing is persisted to
// disk; the history is purely operational.
package repository

import (
	"context"
	"sync"

	"github.com/pulseworks/rppg/internal/domain/model"
)

// Default history configuration constants.
const (
	defaultCapacity = 256
)

// Store is the estimate history contract.
type Store interface {
	// Add records an emitted estimate.
	Add(ctx context.Context, est model.Estimate)

	// Recent returns up to n estimates, newest first.
	Recent(ctx context.Context, n int) ([]model.Estimate, error)

	// Latest returns the most recent estimate, if any.
	Latest(ctx context.Context) (model.Estimate, bool)

	// Count returns the number of estimates held.
	Count(ctx context.Context) int
}

// Option applies a configuration option to the History.
type Option func(*History)

// WithCapacity sets how many estimates the ring retains.
func WithCapacity(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.capacity = n
		}
	}
}

// History implements Store with a mutex-guarded ring buffer.
type History struct {
	mu       sync.RWMutex
	capacity int
	ring     []model.Estimate
	next     int
	full     bool
}

// NewHistory creates a History with configuration options.
func NewHistory(opts ...Option) *History {
	h := &History{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(h)
	}

	h.ring = make([]model.Estimate, h.capacity)

	return h
}

// Add records an estimate, displacing the oldest once full.
func (h *History) Add(ctx context.Context, est model.Estimate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.next] = est
	h.next = (h.next + 1) % h.capacity
	if h.next == 0 {
		h.full = true
	}
}

// OnHeartRate lets the History register directly as a pipeline observer.
func (h *History) OnHeartRate(ctx context.Context, est model.Estimate) {
	h.Add(ctx, est)
}

// Recent returns up to n estimates, newest first.
func (h *History) Recent(ctx context.Context, n int) ([]model.Estimate, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	count := h.count()
	if n > count {
		n = count
	}

	out := make([]model.Estimate, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.next - 1 - i + h.capacity) % h.capacity
		out = append(out, h.ring[idx])
	}
	return out, nil
}

// Latest returns the most recent estimate, if any.
func (h *History) Latest(ctx context.Context) (model.Estimate, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count() == 0 {
		return model.Estimate{}, false
	}
	idx := (h.next - 1 + h.capacity) % h.capacity
	return h.ring[idx], true
}

// Count returns the number of estimates held.
func (h *History) Count(ctx context.Context) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count()
}

// count must be called with the lock held.
func (h *History) count() int {
	if h.full {
		return h.capacity
	}
	return h.next
}
