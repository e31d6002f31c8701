package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// ReconcileFunc runs one drift check and reports how many windows it had to
// open or close.
type ReconcileFunc func() (opened, closed int, err error)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks for drift between the known windows and
// the window system, and corrects it.
type Reconciler struct {
	interval  time.Duration
	reconcile ReconcileFunc
	logger    *slog.Logger
}

// NewReconciler creates a new reconciler. A non-positive interval falls
// back to 30 seconds.
func NewReconciler(cfg ReconcilerConfig, reconcile ReconcileFunc) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconciler{
		interval:  interval,
		reconcile: reconcile,
		logger:    logger,
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
			r.ReconcileNow()
		}
	}
}

// ReconcileNow performs a single reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	opened, closed, err := r.reconcile()
	if err != nil {
		r.logger.Warn("reconciler: pass failed", "error", err)
		return
	}
	if opened > 0 || closed > 0 {
		r.logger.Info("reconciler: corrected drift", "opened", opened, "closed", closed)
	}
}
