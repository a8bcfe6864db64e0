// Package hierarchy picks exactly one rollup level per date so that spend
// reported at the ad level is never added again at the campaign level.
package hierarchy

import (
	"sort"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/samber/lo"
)

// Contribution is the resolved total for one date.
// Records are the canonical rows that produced Totals, all from the selected level.
type Contribution struct {
	Date    time.Time
	Level   Level
	Totals  metrics.Totals
	Records []metrics.MetricRecord
}

// ResolveDate resolves deduplicated records that share one date and one campaign.
// The highest-priority level present is selected and only its rows are summed.
// No records yields a zero contribution with LevelNone.
func ResolveDate(records []metrics.MetricRecord) Contribution {
	if len(records) == 0 {
		return Contribution{Level: LevelNone}
	}

	byLevel := make(map[Level][]metrics.MetricRecord, len(Levels))
	for _, r := range records {
		l := LevelOf(r)
		byLevel[l] = append(byLevel[l], r)
	}

	for _, level := range Levels {
		rows, ok := byLevel[level]
		if !ok {
			continue
		}
		return Contribution{
			Date:    records[0].MetricDate,
			Level:   level,
			Totals:  sumTotals(rows),
			Records: rows,
		}
	}
	return Contribution{Level: LevelNone}
}

// Resolve groups one campaign's deduplicated records by date and resolves each
// date independently. A campaign may legitimately resolve at the ad level on one
// day and at the campaign level on another. Output is ascending by date.
func Resolve(records []metrics.MetricRecord) []Contribution {
	byDate := groupByDate(records)
	out := make([]Contribution, 0, len(byDate))
	for _, date := range sortedDates(byDate) {
		c := ResolveDate(byDate[date])
		c.Date = date
		out = append(out, c)
	}
	return out
}

// ResolveAccount resolves one platform account's records into per-date totals.
// For each date, campaign-scoped data wins over the account-level row: every
// campaign present is resolved on its own and the results are summed. The
// account row is used only for dates where no campaign-scoped row exists.
func ResolveAccount(records []metrics.MetricRecord) []Contribution {
	byDate := groupByDate(records)
	out := make([]Contribution, 0, len(byDate))
	for _, date := range sortedDates(byDate) {
		rows := byDate[date]
		scoped := lo.Filter(rows, func(r metrics.MetricRecord, _ int) bool {
			return LevelOf(r) != LevelAccount
		})
		if len(scoped) == 0 {
			c := ResolveDate(rows)
			c.Date = date
			out = append(out, c)
			continue
		}

		combined := Contribution{Date: date, Level: LevelCampaign}
		byCampaign := lo.GroupBy(scoped, func(r metrics.MetricRecord) string { return r.CampaignID })
		campaignIDs := lo.Keys(byCampaign)
		sort.Strings(campaignIDs)
		for _, id := range campaignIDs {
			c := ResolveDate(byCampaign[id])
			combined.Totals = combined.Totals.Add(c.Totals)
			combined.Records = append(combined.Records, c.Records...)
		}
		out = append(out, combined)
	}
	return out
}

func sumTotals(rows []metrics.MetricRecord) metrics.Totals {
	var total metrics.Totals
	for _, r := range rows {
		total = total.Add(metrics.TotalsOf(r))
	}
	return total
}

func groupByDate(records []metrics.MetricRecord) map[time.Time][]metrics.MetricRecord {
	byDate := make(map[time.Time][]metrics.MetricRecord)
	for _, r := range records {
		date := metrics.DateOf(r.MetricDate)
		byDate[date] = append(byDate[date], r)
	}
	return byDate
}

func sortedDates(byDate map[time.Time][]metrics.MetricRecord) []time.Time {
	dates := lo.Keys(byDate)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
