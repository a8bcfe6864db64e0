// Package cache stores computed KPI snapshots between requests.
package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
)

// ErrMiss is returned by Get when no snapshot is stored under the key.
var ErrMiss = errors.New("cache miss")

// SnapshotCache is a derived-data cache. Snapshots are always recomputable
// from the metric store, so callers treat every error as a miss.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (kpi.Snapshot, error)
	Set(ctx context.Context, key string, snapshot kpi.Snapshot) error
}

const keyPrefix = "adpulse:kpi:v1"

// SnapshotKey identifies a snapshot by everything it is computed from. The
// catalog fingerprint keeps snapshots built from an older catalog out of reach.
func SnapshotKey(workspaceID, campaignID string, window timeseries.Window, granularity metrics.Granularity, catalogFingerprint string) string {
	fp := catalogFingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return strings.Join([]string{
		keyPrefix,
		workspaceID,
		campaignID,
		window.String(),
		string(granularity),
		fp,
	}, ":")
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (kpi.Snapshot, error) {
	return kpi.Snapshot{}, ErrMiss
}

func (NopCache) Set(context.Context, string, kpi.Snapshot) error {
	return nil
}
