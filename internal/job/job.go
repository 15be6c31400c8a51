// Package job serializes a session's long-running computations with
// last-request-wins semantics: starting a new job cancels the in-flight one,
// and a superseded job's result is discarded before it can commit. The
// generation counter, not the cancellation signal, is the source of truth;
// a job that ignores its context still cannot commit once superseded.
package job

import (
	"context"
	"sync"

	"signa/pkg/platform/sentinel"
)

// Kind names a job type for logs and metrics.
type Kind string

const (
	KindPropagate Kind = "propagate"
	KindGenerate  Kind = "generate"
	KindAnalyze   Kind = "analyze"
)

// Runner runs one job at a time per session. Jobs run on the caller's
// goroutine (the HTTP request goroutine); "background" means a newer request
// can cancel them mid-flight, not that they outlive the request.
type Runner struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// NewRunner creates an idle runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes fn under a fresh generation, cancelling any in-flight job
// first. If a newer job starts while fn is running, Run returns
// sentinel.ErrSuperseded and the caller must discard fn's side-effect-free
// result. fn itself must be side-effect free with respect to shared state;
// commits happen in the caller after Run returns nil.
func (r *Runner) Run(ctx context.Context, kind Kind, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return sentinel.ErrUnavailable
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	jobCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	err := fn(jobCtx)

	r.mu.Lock()
	stale := r.gen != gen
	if !stale {
		r.cancel = nil
		cancel()
	}
	r.mu.Unlock()

	if stale {
		return sentinel.ErrSuperseded
	}
	if err != nil {
		if jobCtx.Err() != nil && ctx.Err() == nil {
			// Cancelled by a successor rather than by the caller.
			return sentinel.ErrSuperseded
		}
		return err
	}
	return nil
}

// Supersede cancels any in-flight job without starting a new one. Used when
// a cloud swap invalidates whatever is running.
func (r *Runner) Supersede() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Close cancels any in-flight job and rejects future ones.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
