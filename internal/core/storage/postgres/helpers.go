package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanMetricRecord scans one performance_metrics row.
// NULL leaf ids become empty strings, NULL numbers become zero and a NULL
// synced_at becomes the zero time. A malformed extra_metrics payload yields
// empty extras; the row is still returned and malformed is set.
func scanMetricRecord(row scanner) (rec metrics.MetricRecord, malformed bool, err error) {
	var (
		campaignID, adSetID, adID  sql.NullString
		granularity                string
		impressions, clicks        sql.NullInt64
		spend                      decimal.NullDecimal
		conversions, conversionVal decimal.NullDecimal
		extraJSON                  []byte
		syncedAt                   sql.NullTime
	)

	err = row.Scan(
		&rec.ID,
		&rec.PlatformAccountID,
		&campaignID,
		&adSetID,
		&adID,
		&rec.MetricDate,
		&granularity,
		&spend,
		&impressions,
		&clicks,
		&conversions,
		&conversionVal,
		&extraJSON,
		&syncedAt,
	)
	if err != nil {
		return metrics.MetricRecord{}, false, fmt.Errorf("failed to scan metric row: %w", err)
	}

	rec.CampaignID = campaignID.String
	rec.AdSetID = adSetID.String
	rec.AdID = adID.String
	rec.MetricDate = metrics.DateOf(rec.MetricDate)
	rec.Granularity = metrics.Granularity(granularity)
	rec.Spend = orZero(spend)
	rec.Impressions = impressions.Int64
	rec.Clicks = clicks.Int64
	rec.Conversions = orZero(conversions)
	rec.ConversionValue = orZero(conversionVal)
	if syncedAt.Valid {
		rec.SyncedAt = syncedAt.Time.UTC()
	}

	extra, err := metrics.ParseExtraMetrics(extraJSON)
	if errors.Is(err, metrics.ErrMalformedExtraMetrics) {
		slog.Warn("[Postgres] Ignoring malformed extra_metrics",
			"record_id", rec.ID,
			"platform_account_id", rec.PlatformAccountID,
			"metric_date", rec.MetricDate.Format(metrics.DateLayout))
		malformed = true
	}
	rec.ExtraMetrics = extra
	return rec, malformed, nil
}

func scanCampaign(row scanner) (metrics.Campaign, error) {
	var (
		c                     metrics.Campaign
		name, objective, pkey sql.NullString
	)
	if err := row.Scan(&c.ID, &name, &objective, &pkey); err != nil {
		return metrics.Campaign{}, err
	}
	c.Name = name.String
	c.Objective = objective.String
	c.PlatformKey = pkey.String
	return c, nil
}

// windowBounds turns a window into nullable date parameters. An unbounded
// window passes NULL for both sides.
func windowBounds(w timeseries.Window) (from, to sql.NullTime) {
	if w.IsZero() {
		return sql.NullTime{}, sql.NullTime{}
	}
	return sql.NullTime{Time: w.From, Valid: true}, sql.NullTime{Time: w.To, Valid: true}
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// dateArg formats a date for log attributes.
func dateArg(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(metrics.DateLayout)
}
