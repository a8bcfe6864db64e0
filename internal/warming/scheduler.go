// Package warming keeps the KPI snapshot cache hot for configured workspaces.
package warming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adpulse-lab/adpulse/internal/observability"
)

// Warmer recomputes a workspace and writes its campaign snapshots to the cache.
type Warmer interface {
	WarmWorkspace(ctx context.Context, workspaceID string) (int, error)
}

// Scheduler warms every configured workspace on a periodic interval.
// Each tick is independent; a failed workspace is retried on the next tick.
type Scheduler struct {
	interval     time.Duration
	warmer       Warmer
	workspaceIDs []string
	metrics      *observability.Metrics
}

// NewScheduler creates a warming scheduler. m may be nil.
func NewScheduler(interval time.Duration, warmer Warmer, workspaceIDs []string, m *observability.Metrics) *Scheduler {
	return &Scheduler{
		interval:     interval,
		warmer:       warmer,
		workspaceIDs: workspaceIDs,
		metrics:      m,
	}
}

// Start begins periodic warming.
// Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("warming interval must be positive, got %s", s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Warming] Starting cache warming scheduler",
		"interval", s.interval,
		"workspaces", len(s.workspaceIDs),
	)

	// Warm once up front so the first requests after a deploy hit the cache.
	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Warming] Stopping (context cancelled)")
			return nil
		}
	}
}

// RunOnce warms each workspace in turn and returns the joined failures.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, workspaceID := range s.workspaceIDs {
		if ctx.Err() != nil {
			slog.Info("[Warming] Run interrupted by context cancellation", "workspace_id", workspaceID)
			errs = append(errs, ctx.Err())
			break
		}

		start := time.Now()
		written, err := s.warmer.WarmWorkspace(ctx, workspaceID)
		s.metrics.RecordWarmRun(err)
		if err != nil {
			slog.Error("[Warming] Workspace warming failed",
				"workspace_id", workspaceID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("warm workspace %s: %w", workspaceID, err))
			continue
		}

		slog.Debug("[Warming] Workspace warmed",
			"workspace_id", workspaceID,
			"snapshots", written,
			"elapsed", time.Since(start),
		)
	}
	return errors.Join(errs...)
}
