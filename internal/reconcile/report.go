package reconcile

import (
	"encoding/json"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/hierarchy"
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
	"github.com/shopspring/decimal"
)

// DailyTotal is one resolved date: the level that was counted, its base totals
// and the result counters extracted from the same rows. Conversions is the
// headline conversion count of those rows.
type DailyTotal struct {
	Date        time.Time
	Level       hierarchy.Level
	Totals      metrics.Totals
	Results     kpi.ResultMetrics
	Conversions decimal.Decimal

	byAction map[string]decimal.Decimal
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (d DailyTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date        string            `json:"date"`
		Level       hierarchy.Level   `json:"level"`
		Totals      metrics.Totals    `json:"totals"`
		Results     kpi.ResultMetrics `json:"results"`
		Conversions decimal.Decimal   `json:"conversions"`
	}{
		Date:        d.Date.Format(metrics.DateLayout),
		Level:       d.Level,
		Totals:      d.Totals,
		Results:     d.Results,
		Conversions: d.Conversions,
	})
}

// CampaignReport is the reconciled view of one campaign over the window.
type CampaignReport struct {
	CampaignID  string             `json:"campaign_id"`
	Name        string             `json:"name,omitempty"`
	Objective   string             `json:"objective"`
	PlatformKey string             `json:"platform_key,omitempty"`
	Days        []DailyTotal       `json:"days"`
	Totals      metrics.Totals     `json:"totals"`
	Results     kpi.ResultMetrics  `json:"results"`
	Series      []timeseries.Point `json:"series"`
	Summary     timeseries.Summary `json:"summary"`
	Snapshot    kpi.Snapshot       `json:"kpi"`
}

// WorkspaceTotals is the account-level rollup of the whole workspace.
// Conversions use the headline conversion of each counted row.
type WorkspaceTotals struct {
	Totals          metrics.Totals      `json:"totals"`
	Conversions     decimal.Decimal     `json:"conversions"`
	ConversionLabel string              `json:"conversion_label"`
	Revenue         decimal.Decimal     `json:"revenue"`
	CostPerResult   decimal.NullDecimal `json:"cost_per_result"`
}

// Report is the output of one pipeline run.
type Report struct {
	WorkspaceID string              `json:"workspace_id"`
	Granularity metrics.Granularity `json:"granularity"`
	From        string              `json:"from,omitempty"`
	To          string              `json:"to,omitempty"`

	RecordsIn  int `json:"records_in"`
	Canonical  int `json:"canonical_records"`
	Duplicates int `json:"duplicates_dropped"`

	Workspace WorkspaceTotals    `json:"workspace"`
	Days      []DailyTotal       `json:"days"`
	Series    []timeseries.Point `json:"series"`
	Summary   timeseries.Summary `json:"summary"`
	Campaigns []CampaignReport   `json:"campaigns"`

	CatalogFingerprint string `json:"catalog_fingerprint"`
}

// Campaign returns the report of one campaign.
func (r *Report) Campaign(id string) (CampaignReport, bool) {
	for _, c := range r.Campaigns {
		if c.CampaignID == id {
			return c, true
		}
	}
	return CampaignReport{}, false
}
