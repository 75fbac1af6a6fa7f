package ui

import (
	"context"
	"sync"
)

// replays tracks the running trace replay. Each start gets a new
// generation; a replay that was superseded can no longer report state.
type replays struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// start cancels any running replay and returns the context and generation
// of a new one.
func (r *replays) start() (context.Context, uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	r.cancel = cancel
	return ctx, r.gen
}

// stop cancels the running replay, if any.
func (r *replays) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// current reports whether gen is the latest replay.
func (r *replays) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.gen
}

// finish marks replay gen as ended. It returns false when a newer replay
// has started since, in which case the caller must not touch shared state.
func (r *replays) finish(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return false
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return true
}

// running reports whether a replay is in progress.
func (r *replays) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}
