package service

import (
	"context"
	"time"

	"github.com/kevinwong150/journalex-sub001/pkg/logger"
)

const lastSyncedKey = "journal.last_synced_at"

// SyncMarker persists the high-water mark between sync runs.
type SyncMarker interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Put(ctx context.Context, key string, value any) error
}

// Runner drives the periodic sync loop: every interval it reconciles
// the closing executions of the last lookbackDays calendar days.
type Runner struct {
	reconciler   *Reconciler
	marker       SyncMarker
	interval     time.Duration
	lookbackDays int
}

func NewRunner(reconciler *Reconciler, marker SyncMarker, interval time.Duration, lookbackDays int) *Runner {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &Runner{
		reconciler:   reconciler,
		marker:       marker,
		interval:     interval,
		lookbackDays: lookbackDays,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.interval <= 0 {
		logger.Info("journal: sync loop disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	}()
}

func (r *Runner) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	end := now.Add(time.Second)
	start := now.AddDate(0, 0, -(r.lookbackDays - 1))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	if _, err := r.reconciler.SyncRange(ctx, start, end); err != nil {
		logger.Error("journal: sync run failed: %v", err)
		return
	}
	if err := r.marker.Put(ctx, lastSyncedKey, now.Format(time.RFC3339)); err != nil {
		logger.Error("journal: record sync marker: %v", err)
	}
}

// LastSyncedAt reports the end of the most recent successful run.
func (r *Runner) LastSyncedAt(ctx context.Context) (time.Time, bool) {
	var raw string
	found, err := r.marker.Get(ctx, lastSyncedKey, &raw)
	if err != nil || !found {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
