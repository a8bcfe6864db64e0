package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adpulse-lab/adpulse/internal/cache"
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/storage"
	"github.com/adpulse-lab/adpulse/internal/observability"
	"github.com/adpulse-lab/adpulse/internal/reconcile"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store *mockMetricStore, directory *mockDirectory, snapshots cache.SnapshotCache, m *observability.Metrics) *Service {
	t.Helper()
	svc := NewService(store, directory, reconcile.NewPipeline(nil, m), snapshots, m, Options{
		DefaultPeriodDays: 30,
		Granularity:       metrics.GranularityDay,
		WorkerCount:       2,
	})
	svc.nowFn = func() time.Time { return testNow }
	return svc
}

func TestService_QueryReport_Validation(t *testing.T) {
	svc := newTestService(t, newMockMetricStore(t), newMockDirectory(t), nil, nil)

	tests := []struct {
		name string
		req  ReportRequest
	}{
		{name: "missing workspace", req: ReportRequest{}},
		{name: "workspace is not a uuid", req: ReportRequest{WorkspaceID: "acme"}},
		{name: "from without to", req: ReportRequest{WorkspaceID: testWorkspaceID, From: "2024-11-01"}},
		{name: "period with explicit range", req: ReportRequest{WorkspaceID: testWorkspaceID, From: "2024-11-01", To: "2024-11-02", Period: "7d"}},
		{name: "malformed date", req: ReportRequest{WorkspaceID: testWorkspaceID, From: "11/01/2024", To: "2024-11-02"}},
		{name: "end before start", req: ReportRequest{WorkspaceID: testWorkspaceID, From: "2024-11-02", To: "2024-11-01"}},
		{name: "window too long", req: ReportRequest{WorkspaceID: testWorkspaceID, From: "2022-01-01", To: "2024-11-01"}},
		{name: "malformed period", req: ReportRequest{WorkspaceID: testWorkspaceID, Period: "month"}},
		{name: "period too long", req: ReportRequest{WorkspaceID: testWorkspaceID, Period: "400d"}},
		{name: "invalid granularity", req: ReportRequest{WorkspaceID: testWorkspaceID, Granularity: "hour"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.QueryReport(context.Background(), tc.req)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestService_QueryReport_DefaultWindowExcludesToday(t *testing.T) {
	store := newMockMetricStore(t)
	directory := newMockDirectory(t)
	svc := newTestService(t, store, directory, nil, nil)

	expected := mustWindow(t, "2024-10-05", "2024-11-03")
	store.On("ListMetricRecords", mock.Anything, testWorkspaceID, expected, metrics.GranularityDay).
		Return(campaignRecords(t), nil).
		Once()
	directory.On("ListCampaigns", mock.Anything, testWorkspaceID).
		Return([]metrics.Campaign{salesCampaign()}, nil).
		Once()

	report, err := svc.QueryReport(context.Background(), ReportRequest{WorkspaceID: testWorkspaceID})
	require.NoError(t, err)
	require.Equal(t, "2024-10-05", report.From)
	require.Equal(t, "2024-11-03", report.To)
	require.Len(t, report.Campaigns, 1)

	snap := report.Campaigns[0].Snapshot
	require.Equal(t, kpi.CategoryPurchases, snap.Category)
	require.True(t, decimal.NewFromInt(75).Equal(snap.Spend), "got %s", snap.Spend)
	require.True(t, decimal.NewFromInt(3).Equal(snap.ResultValue), "got %s", snap.ResultValue)
	require.True(t, decimal.NewFromInt(25).Equal(snap.CostPerResult.Decimal))
	require.True(t, decimal.NewFromInt(4).Equal(snap.ROAS.Decimal))
}

func TestService_QueryReport_ExplicitRangeAndDense(t *testing.T) {
	store := newMockMetricStore(t)
	directory := newMockDirectory(t)
	svc := newTestService(t, store, directory, nil, nil)

	expected := mustWindow(t, "2024-11-01", "2024-11-03")
	store.On("ListMetricRecords", mock.Anything, testWorkspaceID, expected, metrics.GranularityDay).
		Return(campaignRecords(t), nil).
		Once()
	directory.On("ListCampaigns", mock.Anything, testWorkspaceID).
		Return([]metrics.Campaign{salesCampaign()}, nil).
		Once()

	dense := true
	report, err := svc.QueryReport(context.Background(), ReportRequest{
		WorkspaceID: testWorkspaceID,
		From:        "2024-11-01",
		To:          "2024-11-03",
		Dense:       &dense,
	})
	require.NoError(t, err)
	require.Len(t, report.Series, 3)
	require.Equal(t, nov1, report.Series[0].Date)
	require.True(t, report.Series[0].Spend.IsZero())
	require.Equal(t, nov2, report.Series[1].Date)
	require.True(t, decimal.NewFromInt(75).Equal(report.Series[1].Spend))
}

func TestService_QueryReport_StoreErrors(t *testing.T) {
	t.Run("metric store", func(t *testing.T) {
		store := newMockMetricStore(t)
		svc := newTestService(t, store, newMockDirectory(t), nil, nil)
		store.On("ListMetricRecords", mock.Anything, testWorkspaceID, mock.Anything, metrics.GranularityDay).
			Return(nil, errors.New("connection refused")).
			Once()

		_, err := svc.QueryReport(context.Background(), ReportRequest{WorkspaceID: testWorkspaceID})
		require.ErrorContains(t, err, "connection refused")
		require.NotErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("campaign directory", func(t *testing.T) {
		store := newMockMetricStore(t)
		directory := newMockDirectory(t)
		svc := newTestService(t, store, directory, nil, nil)
		store.On("ListMetricRecords", mock.Anything, testWorkspaceID, mock.Anything, metrics.GranularityDay).
			Return([]metrics.MetricRecord{}, nil).
			Once()
		directory.On("ListCampaigns", mock.Anything, testWorkspaceID).
			Return(nil, errors.New("timeout")).
			Once()

		_, err := svc.QueryReport(context.Background(), ReportRequest{WorkspaceID: testWorkspaceID})
		require.ErrorContains(t, err, "loading campaigns")
	})
}

func TestService_QueryCampaignKPI_ReadThroughCache(t *testing.T) {
	store := newMockMetricStore(t)
	directory := newMockDirectory(t)
	snapshots := newMemoryCache()
	m := observability.NewMetrics("test")
	svc := newTestService(t, store, directory, snapshots, m)

	expected := mustWindow(t, "2024-10-28", "2024-11-03")
	directory.On("GetCampaign", mock.Anything, testWorkspaceID, testCampaignID).
		Return(salesCampaign(), nil).
		Twice()
	store.On("ListCampaignRecords", mock.Anything, testWorkspaceID, testCampaignID, expected, metrics.GranularityDay).
		Return(campaignRecords(t), nil).
		Once()

	req := KPIRequest{WorkspaceID: testWorkspaceID, CampaignID: testCampaignID, Period: "7d"}

	first, err := svc.QueryCampaignKPI(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Equal(t, "Black Friday", first.Name)
	require.Equal(t, "2024-10-28", first.From)
	require.Equal(t, "2024-11-03", first.To)
	require.True(t, decimal.NewFromInt(25).Equal(first.KPI.CostPerResult.Decimal))
	require.Equal(t, 1, snapshots.sets)

	second, err := svc.QueryCampaignKPI(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.True(t, first.KPI.Spend.Equal(second.KPI.Spend))
	require.Equal(t, first.KPI.Category, second.KPI.Category)

	require.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
}

func TestService_QueryCampaignKPI_CacheFailuresFallBackToStore(t *testing.T) {
	store := newMockMetricStore(t)
	directory := newMockDirectory(t)
	snapshots := newMemoryCache()
	snapshots.getErr = errors.New("redis: connection pool timeout")
	snapshots.setErr = errors.New("redis: connection pool timeout")
	m := observability.NewMetrics("test")
	svc := newTestService(t, store, directory, snapshots, m)

	directory.On("GetCampaign", mock.Anything, testWorkspaceID, testCampaignID).
		Return(salesCampaign(), nil).
		Once()
	store.On("ListCampaignRecords", mock.Anything, testWorkspaceID, testCampaignID, mock.Anything, metrics.GranularityDay).
		Return(campaignRecords(t), nil).
		Once()

	resp, err := svc.QueryCampaignKPI(context.Background(), KPIRequest{WorkspaceID: testWorkspaceID, CampaignID: testCampaignID})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.True(t, decimal.NewFromInt(75).Equal(resp.KPI.Spend))

	require.Equal(t, float64(1), testutil.ToFloat64(m.CacheErrors.WithLabelValues("get")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.CacheErrors.WithLabelValues("set")))
}

func TestService_QueryCampaignKPI_NotFound(t *testing.T) {
	directory := newMockDirectory(t)
	svc := newTestService(t, newMockMetricStore(t), directory, nil, nil)

	directory.On("GetCampaign", mock.Anything, testWorkspaceID, otherCampaignID).
		Return(metrics.Campaign{}, storage.ErrNotFound).
		Once()

	_, err := svc.QueryCampaignKPI(context.Background(), KPIRequest{WorkspaceID: testWorkspaceID, CampaignID: otherCampaignID})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_QueryCampaignKPI_CampaignWithoutRows(t *testing.T) {
	store := newMockMetricStore(t)
	directory := newMockDirectory(t)
	svc := newTestService(t, store, directory, nil, nil)

	directory.On("GetCampaign", mock.Anything, testWorkspaceID, testCampaignID).
		Return(salesCampaign(), nil).
		Once()
	store.On("ListCampaignRecords", mock.Anything, testWorkspaceID, testCampaignID, mock.Anything, metrics.GranularityDay).
		Return([]metrics.MetricRecord{}, nil).
		Once()

	resp, err := svc.QueryCampaignKPI(context.Background(), KPIRequest{WorkspaceID: testWorkspaceID, CampaignID: testCampaignID})
	require.NoError(t, err)
	require.True(t, resp.KPI.Spend.IsZero())
	require.False(t, resp.KPI.CostPerResult.Valid)
	require.False(t, resp.KPI.ROAS.Valid)
}

func TestService_WarmWorkspace(t *testing.T) {
	store := newMockMetricStore(t)
	directory := newMockDirectory(t)
	snapshots := newMemoryCache()
	svc := newTestService(t, store, directory, snapshots, nil)

	expected := mustWindow(t, "2024-10-05", "2024-11-03")
	store.On("ListMetricRecords", mock.Anything, testWorkspaceID, expected, metrics.GranularityDay).
		Return(campaignRecords(t), nil).
		Once()
	directory.On("ListCampaigns", mock.Anything, testWorkspaceID).
		Return([]metrics.Campaign{
			salesCampaign(),
			{ID: otherCampaignID, Name: "Paused", Objective: "OUTCOME_LEADS", PlatformKey: "meta"},
		}, nil).
		Once()

	written, err := svc.WarmWorkspace(context.Background(), testWorkspaceID)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	key := cache.SnapshotKey(testWorkspaceID, testCampaignID, expected, metrics.GranularityDay, svc.pipeline.Catalog().Fingerprint)
	snap, ok := snapshots.items[key]
	require.True(t, ok, "snapshot for %s not written", key)
	require.True(t, decimal.NewFromInt(75).Equal(snap.Spend))

	// A default KPI request now hits the warmed entry without touching the store.
	directory.On("GetCampaign", mock.Anything, testWorkspaceID, testCampaignID).
		Return(salesCampaign(), nil).
		Once()
	resp, err := svc.QueryCampaignKPI(context.Background(), KPIRequest{WorkspaceID: testWorkspaceID, CampaignID: testCampaignID})
	require.NoError(t, err)
	require.True(t, resp.Cached)
}

func TestService_WarmWorkspace_RejectsInvalidWorkspace(t *testing.T) {
	svc := newTestService(t, newMockMetricStore(t), newMockDirectory(t), newMemoryCache(), nil)
	_, err := svc.WarmWorkspace(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidQuery)
}
