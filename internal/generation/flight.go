package generation

import (
	"context"
	"sync"
)

// Flight enforces the single-flight generation policy: at most one
// generation is in flight per process, and starting a new one cancels the
// prior one before proceeding. Results from a superseded generation are
// detected by comparing generation IDs.
type Flight struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	current uint64
}

// NewFlight returns a controller with no active generation.
func NewFlight() *Flight {
	return &Flight{}
}

// Start cancels any in-flight generation and returns a fresh context plus
// the new generation's ID.
func (f *Flight) Start(parent context.Context) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	f.current++
	return ctx, f.current
}

// CancelCurrent aborts the active generation, if any.
func (f *Flight) CancelCurrent() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// IsCurrent reports whether the given generation is still the active one.
// A stale generation's result must be discarded, not delivered.
func (f *Flight) IsCurrent(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return id == f.current
}

// Finish clears the cancel func once the given generation completes, so a
// later CancelCurrent does not cancel an already-dead context. A stale
// generation finishing is a no-op.
func (f *Flight) Finish(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.current && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
