package reconcile

import (
	"sort"

	"github.com/adpulse-lab/adpulse/internal/core/hierarchy"
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
	"github.com/shopspring/decimal"
)

// reconcileCampaign resolves one campaign's canonical records, extracts its
// result counters from the counted rows only, and computes its snapshot.
func (p *Pipeline) reconcileCampaign(cfg Config, campaign metrics.Campaign, records []metrics.MetricRecord) CampaignReport {
	category := kpi.Classify(campaign.Objective, campaign.PlatformKey)
	days := p.dailyTotals(hierarchy.Resolve(records))

	var (
		totals  metrics.Totals
		results kpi.ResultMetrics
		points  = make([]timeseries.Point, 0, len(days))
	)
	for _, d := range days {
		p.metrics.RecordResolvedDate(string(d.Level))
		totals = totals.Add(d.Totals)
		results = results.Add(d.Results)
		points = append(points, timeseries.Point{
			Date:    d.Date,
			Spend:   d.Totals.Spend,
			Results: kpi.ResultValue(category, d.Results),
			Revenue: d.Results.Revenue,
		})
	}

	series := timeseries.Build(points, cfg.Window, cfg.Dense)
	snapshot := kpi.Compute(campaign, totals.Spend, results)
	p.metrics.RecordCampaign(string(snapshot.Category), campaign.PlatformKey, snapshot.Category == kpi.CategoryUnknown)

	return CampaignReport{
		CampaignID:  campaign.ID,
		Name:        campaign.Name,
		Objective:   campaign.Objective,
		PlatformKey: campaign.PlatformKey,
		Days:        days,
		Totals:      totals,
		Results:     results,
		Series:      series,
		Summary:     timeseries.Summarize(series),
		Snapshot:    snapshot,
	}
}

// reconcileWorkspace rolls every platform account up to per-date totals and
// sums the accounts by date.
func (p *Pipeline) reconcileWorkspace(records []metrics.MetricRecord) ([]DailyTotal, WorkspaceTotals) {
	byAccount := make(map[string][]metrics.MetricRecord)
	for _, r := range records {
		byAccount[r.PlatformAccountID] = append(byAccount[r.PlatformAccountID], r)
	}

	byDate := make(map[string]DailyTotal)
	for _, accountRecords := range byAccount {
		for _, d := range p.dailyTotals(hierarchy.ResolveAccount(accountRecords)) {
			key := d.Date.Format(metrics.DateLayout)
			acc, ok := byDate[key]
			if !ok {
				byDate[key] = d
				continue
			}
			acc.Totals = acc.Totals.Add(d.Totals)
			acc.Results = acc.Results.Add(d.Results)
			acc.Conversions = acc.Conversions.Add(d.Conversions)
			acc.byAction = mergeActions(acc.byAction, d.byAction)
			acc.Level = coarser(acc.Level, d.Level)
			byDate[key] = acc
		}
	}

	days := make([]DailyTotal, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	ws := WorkspaceTotals{Conversions: decimal.Zero, Revenue: decimal.Zero}
	byAction := make(map[string]decimal.Decimal)
	for _, d := range days {
		ws.Totals = ws.Totals.Add(d.Totals)
		ws.Conversions = ws.Conversions.Add(d.Conversions)
		ws.Revenue = ws.Revenue.Add(d.Results.Revenue)
		for actionType, v := range d.byAction {
			byAction[actionType] = byAction[actionType].Add(v)
		}
	}
	ws.ConversionLabel = p.catalog.ActionLabel(dominantAction(byAction))
	ws.CostPerResult = kpi.CostPerResult(ws.Totals.Spend, ws.Conversions)
	return days, ws
}

// dailyTotals attaches result counters and headline conversions, extracted
// from the counted rows only, to resolved contributions.
func (p *Pipeline) dailyTotals(contributions []hierarchy.Contribution) []DailyTotal {
	out := make([]DailyTotal, 0, len(contributions))
	for _, c := range contributions {
		d := DailyTotal{
			Date:        c.Date,
			Level:       c.Level,
			Totals:      c.Totals,
			Conversions: decimal.Zero,
			byAction:    make(map[string]decimal.Decimal),
		}
		for _, r := range c.Records {
			d.Results = d.Results.Add(p.catalog.Extract(r))
			v, actionType := p.catalog.PrimaryConversion(r.ExtraMetrics, r.Conversions)
			d.Conversions = d.Conversions.Add(v)
			d.byAction[actionType] = d.byAction[actionType].Add(v)
		}
		out = append(out, d)
	}
	return out
}

func mergeActions(dst, src map[string]decimal.Decimal) map[string]decimal.Decimal {
	if dst == nil {
		dst = make(map[string]decimal.Decimal, len(src))
	}
	for actionType, v := range src {
		dst[actionType] = dst[actionType].Add(v)
	}
	return dst
}

// dominantAction is the action type that contributed the most conversions.
// Ties go to the lexically smaller action type.
func dominantAction(byAction map[string]decimal.Decimal) string {
	best, bestValue, found := "", decimal.Zero, false
	for actionType, v := range byAction {
		if !found || v.GreaterThan(bestValue) || (v.Equal(bestValue) && actionType < best) {
			best, bestValue, found = actionType, v, true
		}
	}
	return best
}

// coarser returns whichever level sits lower in the priority order.
func coarser(a, b hierarchy.Level) hierarchy.Level {
	if hierarchy.Priority(b) > hierarchy.Priority(a) {
		return b
	}
	return a
}
