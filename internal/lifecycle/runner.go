package lifecycle

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Runner supervises fire-and-forget background tasks so shutdown can wait
// for them instead of cutting a broadcast off mid-send.
type Runner struct {
	ctx context.Context
	log *slog.Logger
	wg  sync.WaitGroup
}

// NewRunner constructs a Runner. Tasks inherit ctx and should stop when it
// is cancelled.
func NewRunner(ctx context.Context, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}

	return &Runner{ctx: ctx, log: log}
}

// Go launches a named task on its own goroutine. Panics are contained.
func (r *Runner) Go(name string, fn func(ctx context.Context)) {
	if fn == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("background task panicked",
					slog.String("task", name),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()

		r.log.Debug("background task started", slog.String("task", name))
		fn(r.ctx)
		r.log.Debug("background task finished", slog.String("task", name))
	}()
}

// Wait blocks until every task has returned or ctx expires.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
