package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/multiwin/internal/window"
)

// Caller runs a function on the main loop and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func() error) error
}

// Reaper unregisters windows whose native resource is gone.
type Reaper interface {
	Reap() []window.ID
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically drops registry entries whose native window
// disappeared without a close callback.
type Reconciler struct {
	interval time.Duration
	loop     Caller
	reaper   Reaper
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
// Reap passes always run on loop.
func NewReconciler(cfg ReconcilerConfig, loop Caller, reaper Reaper) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Reconciler{
		interval: interval,
		loop:     loop,
		reaper:   reaper,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile(ctx context.Context) []window.ID {
	var reaped []window.ID
	err := r.loop.Call(ctx, func() (err error) {
		// Recover from panics to prevent crashing the daemon
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("reconciler panic recovered", "error", p)
			}
		}()
		reaped = r.reaper.Reap()
		return nil
	})
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("reconciler: pass skipped", "error", err)
		}
		return nil
	}

	for _, id := range reaped {
		r.logger.Info("reconciler: orphaned window removed", "window_id", id)
	}
	return reaped
}

// ReconcileNow triggers an immediate reconciliation pass and returns the
// ids it removed.
func (r *Reconciler) ReconcileNow(ctx context.Context) []window.ID {
	return r.reconcile(ctx)
}
