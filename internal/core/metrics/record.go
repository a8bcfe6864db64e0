package metrics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for metric dates in keys and responses.
const DateLayout = "2006-01-02"

// Granularity is the time-bucket size of a MetricRecord.
type Granularity string

const (
	GranularityDay      Granularity = "day"
	GranularityWeek     Granularity = "week"
	GranularityMonth    Granularity = "month"
	GranularityLifetime Granularity = "lifetime"
)

// ParseGranularity validates a granularity label. Empty defaults to day.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case "":
		return GranularityDay, nil
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityLifetime:
		return g, nil
	default:
		return "", fmt.Errorf("invalid granularity %q (must be day, week, month or lifetime)", s)
	}
}

// MetricRecord is one raw performance row as written by a sync run.
// Empty CampaignID/AdSetID/AdID mean NULL; which of them is populated is the rollup level.
type MetricRecord struct {
	ID                string
	PlatformAccountID string
	CampaignID        string
	AdSetID           string
	AdID              string
	MetricDate        time.Time // UTC midnight
	Granularity       Granularity

	Spend           decimal.Decimal
	Impressions     int64
	Clicks          int64
	Conversions     decimal.Decimal
	ConversionValue decimal.Decimal
	ExtraMetrics    ExtraMetrics

	SyncedAt time.Time // zero when the row carries no sync timestamp
}

// IdentityKey makes two records the same logical fact.
type IdentityKey struct {
	PlatformAccountID string
	CampaignID        string
	AdSetID           string
	AdID              string
	MetricDate        string
	Granularity       Granularity
}

// Identity returns the six-field identity key of the record.
func (r MetricRecord) Identity() IdentityKey {
	return IdentityKey{
		PlatformAccountID: r.PlatformAccountID,
		CampaignID:        r.CampaignID,
		AdSetID:           r.AdSetID,
		AdID:              r.AdID,
		MetricDate:        r.MetricDate.Format(DateLayout),
		Granularity:       r.Granularity,
	}
}

// Campaign is the read-only campaign directory entry referenced by metric rows.
type Campaign struct {
	ID          string
	Name        string
	Objective   string
	PlatformKey string
}

// Totals is a quadruple of summable base metrics plus conversion value.
type Totals struct {
	Spend           decimal.Decimal `json:"spend"`
	Impressions     int64           `json:"impressions"`
	Clicks          int64           `json:"clicks"`
	Conversions     decimal.Decimal `json:"conversions"`
	ConversionValue decimal.Decimal `json:"conversion_value"`
}

// Add returns the element-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Spend:           t.Spend.Add(o.Spend),
		Impressions:     t.Impressions + o.Impressions,
		Clicks:          t.Clicks + o.Clicks,
		Conversions:     t.Conversions.Add(o.Conversions),
		ConversionValue: t.ConversionValue.Add(o.ConversionValue),
	}
}

// TotalsOf lifts the base metrics of a single record, clamping negatives to zero.
func TotalsOf(r MetricRecord) Totals {
	return Totals{
		Spend:           nonNegative(r.Spend),
		Impressions:     max(r.Impressions, 0),
		Clicks:          max(r.Clicks, 0),
		Conversions:     nonNegative(r.Conversions),
		ConversionValue: nonNegative(r.ConversionValue),
	}
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
