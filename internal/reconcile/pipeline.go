// Package reconcile runs the full reconciliation of one workspace: filter,
// deduplicate, resolve the rollup hierarchy, compute KPIs and build series.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/dedup"
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/partition"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
	"github.com/adpulse-lab/adpulse/internal/observability"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerCount = 4

// Config controls one pipeline run.
type Config struct {
	WorkspaceID string
	Granularity metrics.Granularity
	Window      timeseries.Window // zero = every date
	Dense       bool              // fill missing window days with zero points
	WorkerCount int
}

func (c Config) normalized() Config {
	n := c
	if n.Granularity == "" {
		n.Granularity = metrics.GranularityDay
	}
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	return n
}

// Pipeline is stateless between runs and safe for concurrent use.
type Pipeline struct {
	catalog *kpi.Catalog
	metrics *observability.Metrics
}

// NewPipeline creates a pipeline. A nil catalog selects the embedded default;
// m may be nil.
func NewPipeline(catalog *kpi.Catalog, m *observability.Metrics) *Pipeline {
	if catalog == nil {
		catalog = kpi.DefaultCatalog()
	}
	return &Pipeline{catalog: catalog, metrics: m}
}

// Catalog returns the action catalog the pipeline extracts results with.
func (p *Pipeline) Catalog() *kpi.Catalog {
	return p.catalog
}

// Run reconciles records against the campaign directory.
//
// Records outside cfg's granularity or window are ignored. The output depends
// only on the input set: the same records in any order give the same report.
func (p *Pipeline) Run(ctx context.Context, cfg Config, records []metrics.MetricRecord, campaigns []metrics.Campaign) (*Report, error) {
	start := time.Now()
	report, err := p.run(ctx, cfg.normalized(), records, campaigns)
	p.metrics.ObservePipeline(err, time.Since(start))
	return report, err
}

func (p *Pipeline) run(ctx context.Context, cfg Config, records []metrics.MetricRecord, campaigns []metrics.Campaign) (*Report, error) {
	inScope := lo.Filter(records, func(r metrics.MetricRecord, _ int) bool {
		return r.Granularity == cfg.Granularity && cfg.Window.Contains(r.MetricDate)
	})
	canonical := dedup.Records(dedup.SortForDedup(inScope))
	dropped := dedup.Dropped(inScope, canonical)
	p.metrics.RecordDedup(string(cfg.Granularity), len(inScope), dropped)

	if dropped > 0 {
		slog.Debug("[Reconcile] Dropped stale duplicates",
			"workspace_id", cfg.WorkspaceID,
			"records", len(inScope),
			"dropped", dropped,
		)
	}

	byCampaign := lo.GroupBy(
		lo.Filter(canonical, func(r metrics.MetricRecord, _ int) bool { return r.CampaignID != "" }),
		func(r metrics.MetricRecord) string { return r.CampaignID },
	)
	directory := lo.KeyBy(campaigns, func(c metrics.Campaign) string { return c.ID })

	campaignReports, err := p.reconcileCampaigns(ctx, cfg, byCampaign, directory)
	if err != nil {
		return nil, err
	}

	days, workspace := p.reconcileWorkspace(canonical)
	points := lo.Map(days, func(d DailyTotal, _ int) timeseries.Point {
		return timeseries.Point{
			Date:    d.Date,
			Spend:   d.Totals.Spend,
			Results: d.Conversions,
			Revenue: d.Results.Revenue,
		}
	})
	series := timeseries.Build(points, cfg.Window, cfg.Dense)

	report := &Report{
		WorkspaceID:        cfg.WorkspaceID,
		Granularity:        cfg.Granularity,
		RecordsIn:          len(inScope),
		Canonical:          len(canonical),
		Duplicates:         dropped,
		Workspace:          workspace,
		Days:               days,
		Series:             series,
		Summary:            timeseries.Summarize(series),
		Campaigns:          campaignReports,
		CatalogFingerprint: p.catalog.Fingerprint,
	}
	if !cfg.Window.IsZero() {
		report.From = cfg.Window.From.Format(metrics.DateLayout)
		report.To = cfg.Window.To.Format(metrics.DateLayout)
	}

	slog.Info("[Reconcile] Workspace reconciled",
		"workspace_id", cfg.WorkspaceID,
		"window", cfg.Window.String(),
		"granularity", cfg.Granularity,
		"records", len(inScope),
		"canonical", len(canonical),
		"campaigns", len(campaignReports),
	)
	return report, nil
}

// reconcileCampaigns shards campaigns across workers. Each shard only reads its
// own campaigns' records, so shards share no mutable state.
func (p *Pipeline) reconcileCampaigns(
	ctx context.Context,
	cfg Config,
	byCampaign map[string][]metrics.MetricRecord,
	directory map[string]metrics.Campaign,
) ([]CampaignReport, error) {
	// Directory campaigns without rows still get a zero report.
	ids := lo.Uniq(append(lo.Keys(byCampaign), lo.Keys(directory)...))
	sort.Strings(ids)
	shards := partition.Split(ids, cfg.WorkerCount)
	results := make([][]CampaignReport, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		g.Go(func() error {
			out := make([]CampaignReport, 0, len(shard))
			for _, id := range shard {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("reconcile campaign %s: %w", id, err)
				}
				campaign, ok := directory[id]
				if !ok {
					campaign = metrics.Campaign{ID: id}
				}
				out = append(out, p.reconcileCampaign(cfg, campaign, byCampaign[id]))
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := lo.Flatten(results)
	sort.Slice(merged, func(i, j int) bool { return merged[i].CampaignID < merged[j].CampaignID })
	return merged, nil
}
