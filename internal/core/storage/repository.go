package storage

import (
	"context"
	"errors"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
)

// ErrNotFound is returned when a requested campaign does not exist in the workspace.
var ErrNotFound = errors.New("not found")

// MetricStore reads raw performance rows written by the sync jobs.
// Rows are returned as stored: duplicates and overlapping rollup levels included.
type MetricStore interface {
	// ListMetricRecords returns every row of the workspace with the given
	// granularity whose metric date falls inside window. A zero window is unbounded.
	ListMetricRecords(ctx context.Context, workspaceID string, window timeseries.Window, granularity metrics.Granularity) ([]metrics.MetricRecord, error)

	// ListCampaignRecords is ListMetricRecords narrowed to one campaign.
	ListCampaignRecords(ctx context.Context, workspaceID, campaignID string, window timeseries.Window, granularity metrics.Granularity) ([]metrics.MetricRecord, error)
}

// CampaignDirectory is the read-only campaign catalog of a workspace.
type CampaignDirectory interface {
	ListCampaigns(ctx context.Context, workspaceID string) ([]metrics.Campaign, error)

	// GetCampaign returns ErrNotFound when the campaign is not part of the workspace.
	GetCampaign(ctx context.Context, workspaceID, campaignID string) (metrics.Campaign, error)
}
