package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/adpulse-lab/adpulse/internal/cache"
	"github.com/adpulse-lab/adpulse/internal/core/kpi"
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/adpulse-lab/adpulse/internal/core/timeseries"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testWorkspaceID = "6f1c2a9e-3b7d-4c1e-9a51-0d2b8e4f7a10"
	testCampaignID  = "b2d4e6f8-1a3c-4e5f-8a9b-0c1d2e3f4a5b"
	otherCampaignID = "c3e5a7b9-2b4d-4f60-9bac-1d2e3f4a5b6c"
)

var (
	testNow = time.Date(2024, 11, 4, 15, 30, 0, 0, time.UTC)
	nov1    = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	nov2    = time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
)

type mockMetricStore struct{ mock.Mock }

func newMockMetricStore(t *testing.T) *mockMetricStore {
	m := &mockMetricStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockMetricStore) ListMetricRecords(ctx context.Context, workspaceID string, window timeseries.Window, granularity metrics.Granularity) ([]metrics.MetricRecord, error) {
	args := m.Called(ctx, workspaceID, window, granularity)
	records, _ := args.Get(0).([]metrics.MetricRecord)
	return records, args.Error(1)
}

func (m *mockMetricStore) ListCampaignRecords(ctx context.Context, workspaceID, campaignID string, window timeseries.Window, granularity metrics.Granularity) ([]metrics.MetricRecord, error) {
	args := m.Called(ctx, workspaceID, campaignID, window, granularity)
	records, _ := args.Get(0).([]metrics.MetricRecord)
	return records, args.Error(1)
}

type mockDirectory struct{ mock.Mock }

func newMockDirectory(t *testing.T) *mockDirectory {
	m := &mockDirectory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockDirectory) ListCampaigns(ctx context.Context, workspaceID string) ([]metrics.Campaign, error) {
	args := m.Called(ctx, workspaceID)
	campaigns, _ := args.Get(0).([]metrics.Campaign)
	return campaigns, args.Error(1)
}

func (m *mockDirectory) GetCampaign(ctx context.Context, workspaceID, campaignID string) (metrics.Campaign, error) {
	args := m.Called(ctx, workspaceID, campaignID)
	campaign, _ := args.Get(0).(metrics.Campaign)
	return campaign, args.Error(1)
}

// memoryCache is an in-process SnapshotCache with injectable failures.
type memoryCache struct {
	items  map[string]kpi.Snapshot
	getErr error
	setErr error
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string]kpi.Snapshot{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (kpi.Snapshot, error) {
	if c.getErr != nil {
		return kpi.Snapshot{}, c.getErr
	}
	s, ok := c.items[key]
	if !ok {
		return kpi.Snapshot{}, cache.ErrMiss
	}
	return s, nil
}

func (c *memoryCache) Set(_ context.Context, key string, snapshot kpi.Snapshot) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = snapshot
	return nil
}

func mustWindow(t *testing.T, from, to string) timeseries.Window {
	t.Helper()
	start, err := metrics.ParseDate(from)
	require.NoError(t, err)
	end, err := metrics.ParseDate(to)
	require.NoError(t, err)
	w, err := timeseries.NewWindow(start, end)
	require.NoError(t, err)
	return w
}

func purchaseExtra(t *testing.T, count, value string) metrics.ExtraMetrics {
	t.Helper()
	e, err := metrics.ParseExtraMetrics([]byte(`{"actions":[{"action_type":"omni_purchase","value":"` + count +
		`"}],"action_values":[{"action_type":"omni_purchase","value":"` + value + `"}]}`))
	require.NoError(t, err)
	return e
}

// campaignRecords: two ad rows on nov2 and a stale campaign-level row that must be ignored.
func campaignRecords(t *testing.T) []metrics.MetricRecord {
	return []metrics.MetricRecord{
		{ID: "r1", PlatformAccountID: "acct1", CampaignID: testCampaignID, AdSetID: "set1", AdID: "ad1",
			MetricDate: nov2, Granularity: metrics.GranularityDay, Spend: decimal.NewFromInt(30),
			ExtraMetrics: purchaseExtra(t, "1", "100")},
		{ID: "r2", PlatformAccountID: "acct1", CampaignID: testCampaignID, AdSetID: "set1", AdID: "ad2",
			MetricDate: nov2, Granularity: metrics.GranularityDay, Spend: decimal.NewFromInt(45),
			ExtraMetrics: purchaseExtra(t, "2", "200")},
		{ID: "r3", PlatformAccountID: "acct1", CampaignID: testCampaignID,
			MetricDate: nov2, Granularity: metrics.GranularityDay, Spend: decimal.NewFromInt(80),
			ExtraMetrics: purchaseExtra(t, "9", "900")},
	}
}

func salesCampaign() metrics.Campaign {
	return metrics.Campaign{ID: testCampaignID, Name: "Black Friday", Objective: "OUTCOME_SALES", PlatformKey: "meta"}
}
