package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/storage"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
)

// ListMetricRecords returns the workspace's rows for one granularity and window,
// ordered by metric_date, synced_at (NULL first) and id.
func (a *Adapter) ListMetricRecords(
	ctx context.Context,
	workspaceID string,
	window timeseries.Window,
	granularity metrics.Granularity,
) ([]metrics.MetricRecord, error) {
	from, to := windowBounds(window)
	rows, err := a.stmtListRecords.QueryContext(ctx, workspaceID, string(granularity), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric records: %w", err)
	}
	return a.collectRecords(rows, workspaceID, window)
}

// ListCampaignRecords returns one campaign's rows for one granularity and window.
func (a *Adapter) ListCampaignRecords(
	ctx context.Context,
	workspaceID, campaignID string,
	window timeseries.Window,
	granularity metrics.Granularity,
) ([]metrics.MetricRecord, error) {
	from, to := windowBounds(window)
	rows, err := a.stmtListCampaignRecords.QueryContext(ctx, workspaceID, campaignID, string(granularity), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign metric records: %w", err)
	}
	return a.collectRecords(rows, workspaceID, window)
}

func (a *Adapter) collectRecords(rows *sql.Rows, workspaceID string, window timeseries.Window) ([]metrics.MetricRecord, error) {
	defer rows.Close()

	var (
		records   []metrics.MetricRecord
		malformed int
	)
	for rows.Next() {
		rec, bad, err := scanMetricRecord(rows)
		if err != nil {
			return nil, err
		}
		if bad {
			malformed++
			a.metrics.RecordMalformedExtra()
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric records: %w", err)
	}

	slog.Debug("[Postgres] Loaded metric records",
		"workspace_id", workspaceID,
		"from", dateArg(window.From),
		"to", dateArg(window.To),
		"count", len(records),
		"malformed_extra_metrics", malformed)
	return records, nil
}

// ListCampaigns returns the workspace's campaigns with their platform key, ordered by id.
func (a *Adapter) ListCampaigns(ctx context.Context, workspaceID string) ([]metrics.Campaign, error) {
	rows, err := a.stmtListCampaigns.QueryContext(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []metrics.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign row: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}
	return campaigns, nil
}

// GetCampaign returns storage.ErrNotFound when the campaign is not in the workspace.
func (a *Adapter) GetCampaign(ctx context.Context, workspaceID, campaignID string) (metrics.Campaign, error) {
	c, err := scanCampaign(a.stmtGetCampaign.QueryRowContext(ctx, workspaceID, campaignID))
	if errors.Is(err, sql.ErrNoRows) {
		return metrics.Campaign{}, storage.ErrNotFound
	}
	if err != nil {
		return metrics.Campaign{}, fmt.Errorf("failed to get campaign %s: %w", campaignID, err)
	}
	return c, nil
}
