// Package reporting serves reconciled workspace reports and campaign KPI
// snapshots on top of the metric store.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adpulse-lab/adpulse/internal/cache"
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/storage"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
	"github.com/adpulse-lab/adpulse/internal/observability"
	"github.com/adpulse-lab/adpulse/internal/reconcile"
	"github.com/google/uuid"
)

// maxWindowDays bounds the window of a single request.
const maxWindowDays = 366

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid report query")

// Options are the request defaults taken from configuration.
type Options struct {
	DefaultPeriodDays int
	Granularity       metrics.Granularity
	Dense             bool
	WorkerCount       int
}

// Service implements the read side: load rows, reconcile, answer.
// Nothing it computes is persisted except cached KPI snapshots.
type Service struct {
	store     storage.MetricStore
	directory storage.CampaignDirectory
	pipeline  *reconcile.Pipeline
	snapshots cache.SnapshotCache
	metrics   *observability.Metrics
	opts      Options
	nowFn     func() time.Time
}

// NewService creates a reporting service. A nil snapshot cache disables caching.
func NewService(
	store storage.MetricStore,
	directory storage.CampaignDirectory,
	pipeline *reconcile.Pipeline,
	snapshots cache.SnapshotCache,
	m *observability.Metrics,
	opts Options,
) *Service {
	if snapshots == nil {
		snapshots = cache.NopCache{}
	}
	if opts.DefaultPeriodDays <= 0 {
		opts.DefaultPeriodDays = 30
	}
	if opts.Granularity == "" {
		opts.Granularity = metrics.GranularityDay
	}
	return &Service{
		store:     store,
		directory: directory,
		pipeline:  pipeline,
		snapshots: snapshots,
		metrics:   m,
		opts:      opts,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// QueryReport reconciles every row of the workspace inside the requested window.
func (s *Service) QueryReport(ctx context.Context, req ReportRequest) (*reconcile.Report, error) {
	if err := validateID("workspace_id", req.WorkspaceID); err != nil {
		return nil, err
	}
	window, err := s.resolveWindow(req.From, req.To, req.Period)
	if err != nil {
		return nil, err
	}
	granularity, err := s.resolveGranularity(req.Granularity)
	if err != nil {
		return nil, err
	}
	dense := s.opts.Dense
	if req.Dense != nil {
		dense = *req.Dense
	}

	return s.runWorkspace(ctx, reconcile.Config{
		WorkspaceID: req.WorkspaceID,
		Granularity: granularity,
		Window:      window,
		Dense:       dense,
		WorkerCount: s.opts.WorkerCount,
	})
}

// QueryCampaignKPI returns the snapshot of one campaign, read through the cache.
// storage.ErrNotFound is returned when the campaign is not in the workspace.
func (s *Service) QueryCampaignKPI(ctx context.Context, req KPIRequest) (*KPIResponse, error) {
	if err := validateID("workspace_id", req.WorkspaceID); err != nil {
		return nil, err
	}
	if err := validateID("campaign_id", req.CampaignID); err != nil {
		return nil, err
	}
	window, err := s.resolveWindow(req.From, req.To, req.Period)
	if err != nil {
		return nil, err
	}
	granularity, err := s.resolveGranularity(req.Granularity)
	if err != nil {
		return nil, err
	}

	campaign, err := s.directory.GetCampaign(ctx, req.WorkspaceID, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("loading campaign %s: %w", req.CampaignID, err)
	}

	resp := &KPIResponse{
		WorkspaceID: req.WorkspaceID,
		CampaignID:  campaign.ID,
		Name:        campaign.Name,
		Objective:   campaign.Objective,
		PlatformKey: campaign.PlatformKey,
		From:        window.From.Format(metrics.DateLayout),
		To:          window.To.Format(metrics.DateLayout),
		Granularity: granularity,
	}

	key := cache.SnapshotKey(req.WorkspaceID, campaign.ID, window, granularity, s.pipeline.Catalog().Fingerprint)
	if snapshot, ok := s.lookup(ctx, key); ok {
		resp.KPI = snapshot
		resp.Cached = true
		return resp, nil
	}

	records, err := s.store.ListCampaignRecords(ctx, req.WorkspaceID, campaign.ID, window, granularity)
	if err != nil {
		return nil, fmt.Errorf("loading records of campaign %s: %w", campaign.ID, err)
	}
	report, err := s.pipeline.Run(ctx, reconcile.Config{
		WorkspaceID: req.WorkspaceID,
		Granularity: granularity,
		Window:      window,
		WorkerCount: 1,
	}, records, []metrics.Campaign{campaign})
	if err != nil {
		return nil, err
	}

	cr, ok := report.Campaign(campaign.ID)
	if !ok {
		return nil, fmt.Errorf("campaign %s missing from reconciled report", campaign.ID)
	}
	resp.KPI = cr.Snapshot
	s.save(ctx, key, cr.Snapshot)
	return resp, nil
}

// WarmWorkspace recomputes the default-period report of a workspace and writes
// every campaign snapshot to the cache. It returns the number of snapshots written.
func (s *Service) WarmWorkspace(ctx context.Context, workspaceID string) (int, error) {
	if err := validateID("workspace_id", workspaceID); err != nil {
		return 0, err
	}
	window := timeseries.WindowFor(s.nowFn(), s.opts.DefaultPeriodDays)
	report, err := s.runWorkspace(ctx, reconcile.Config{
		WorkspaceID: workspaceID,
		Granularity: s.opts.Granularity,
		Window:      window,
		WorkerCount: s.opts.WorkerCount,
	})
	if err != nil {
		return 0, err
	}

	written := 0
	for _, cr := range report.Campaigns {
		key := cache.SnapshotKey(workspaceID, cr.CampaignID, window, s.opts.Granularity, report.CatalogFingerprint)
		if s.save(ctx, key, cr.Snapshot) {
			written++
		}
	}
	return written, nil
}

func (s *Service) runWorkspace(ctx context.Context, cfg reconcile.Config) (*reconcile.Report, error) {
	records, err := s.store.ListMetricRecords(ctx, cfg.WorkspaceID, cfg.Window, cfg.Granularity)
	if err != nil {
		return nil, fmt.Errorf("loading metric records: %w", err)
	}
	campaigns, err := s.directory.ListCampaigns(ctx, cfg.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("loading campaigns: %w", err)
	}
	return s.pipeline.Run(ctx, cfg, records, campaigns)
}

// lookup treats every cache failure as a miss.
func (s *Service) lookup(ctx context.Context, key string) (kpi.Snapshot, bool) {
	snapshot, err := s.snapshots.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.RecordCacheLookup(true)
		return snapshot, true
	case errors.Is(err, cache.ErrMiss):
		s.metrics.RecordCacheLookup(false)
	default:
		s.metrics.RecordCacheLookup(false)
		s.metrics.RecordCacheError("get")
		slog.Warn("[Reporting] Snapshot cache read failed", "key", key, "error", err)
	}
	return kpi.Snapshot{}, false
}

func (s *Service) save(ctx context.Context, key string, snapshot kpi.Snapshot) bool {
	if err := s.snapshots.Set(ctx, key, snapshot); err != nil {
		s.metrics.RecordCacheError("set")
		slog.Warn("[Reporting] Snapshot cache write failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) resolveWindow(from, to, period string) (timeseries.Window, error) {
	explicit := from != "" || to != ""
	switch {
	case explicit && period != "":
		return timeseries.Window{}, invalidQueryf("period cannot be combined with from/to")
	case explicit:
		if from == "" || to == "" {
			return timeseries.Window{}, invalidQueryf("from and to must be given together")
		}
		start, err := metrics.ParseDate(from)
		if err != nil {
			return timeseries.Window{}, invalidQueryf("from: %v", err)
		}
		end, err := metrics.ParseDate(to)
		if err != nil {
			return timeseries.Window{}, invalidQueryf("to: %v", err)
		}
		window, err := timeseries.NewWindow(start, end)
		if err != nil {
			return timeseries.Window{}, invalidQueryf("%v", err)
		}
		if window.Days() > maxWindowDays {
			return timeseries.Window{}, invalidQueryf("window spans %d days (max %d)", window.Days(), maxWindowDays)
		}
		return window, nil
	case period != "":
		days, err := timeseries.ParsePeriod(period)
		if err != nil {
			return timeseries.Window{}, invalidQueryf("%v", err)
		}
		if days > maxWindowDays {
			return timeseries.Window{}, invalidQueryf("period %s exceeds %d days", period, maxWindowDays)
		}
		return timeseries.WindowFor(s.nowFn(), days), nil
	default:
		return timeseries.WindowFor(s.nowFn(), s.opts.DefaultPeriodDays), nil
	}
}

func (s *Service) resolveGranularity(raw string) (metrics.Granularity, error) {
	if raw == "" {
		return s.opts.Granularity, nil
	}
	g, err := metrics.ParseGranularity(raw)
	if err != nil {
		return "", invalidQueryf("%v", err)
	}
	return g, nil
}

func validateID(field, value string) error {
	if value == "" {
		return invalidQueryf("%s is required", field)
	}
	if _, err := uuid.Parse(value); err != nil {
		return invalidQueryf("%s must be a UUID, got %q", field, value)
	}
	return nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
