package reporting

import (
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
)

// ReportRequest selects the workspace report to compute.
// Either From and To (YYYY-MM-DD, inclusive) or Period ("30d") picks the window;
// with neither, the configured default period is used.
type ReportRequest struct {
	WorkspaceID string
	From        string
	To          string
	Period      string
	Granularity string // default: configured granularity
	Dense       *bool  // default: configured dense_calendar
}

// KPIRequest selects one campaign snapshot. Window fields behave as in ReportRequest.
type KPIRequest struct {
	WorkspaceID string
	CampaignID  string
	From        string
	To          string
	Period      string
	Granularity string
}

// KPIResponse is the KPI card of one campaign.
type KPIResponse struct {
	WorkspaceID string              `json:"workspace_id"`
	CampaignID  string              `json:"campaign_id"`
	Name        string              `json:"name"`
	Objective   string              `json:"objective"`
	PlatformKey string              `json:"platform_key"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Granularity metrics.Granularity `json:"granularity"`
	KPI         kpi.Snapshot        `json:"kpi"`
	Cached      bool                `json:"cached"`
}
