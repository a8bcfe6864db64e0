package kpi

import (
	"testing"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestClassify(t *testing.T) {
	tests := []struct {
		objective string
		platform  string
		want      Category
	}{
		{"OUTCOME_LEADS", "meta", CategoryLeads},
		{"lead_generation", "meta", CategoryLeads},
		{"OUTCOME_MESSAGES", "meta", CategoryConversations},
		{"LINK_CLICKS", "meta", CategoryClicks},
		{"OUTCOME_TRAFFIC", "meta", CategoryClicks},
		{"POST_ENGAGEMENT", "meta", CategoryEngagements},
		{"OUTCOME_ENGAGEMENT", "meta", CategoryEngagements},
		{"VIDEO_VIEWS", "meta", CategoryViews},
		{"OUTCOME_SALES", "meta", CategoryPurchases},
		{"CONVERSIONS", "meta", CategoryPurchases},
		{"PRODUCT_PURCHASE", "meta", CategoryPurchases},
		{"UNRECOGNIZED_TYPE", "google_ads", CategoryClicks},
		{"", "google_ads", CategoryClicks},
		{"UNRECOGNIZED_TYPE", "meta", CategoryUnknown},
		{"", "", CategoryUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.objective+"/"+tc.platform, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.objective, tc.platform))
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	require.Equal(t, "Resultados", CategoryUnknown.Label())
	require.Equal(t, "Leads", CategoryLeads.Label())
	require.True(t, CategoryPurchases.IsCommerce())
	require.False(t, CategoryLeads.IsCommerce())
}

func TestCompute_SalesCampaign(t *testing.T) {
	snap := Compute(
		metrics.Campaign{ID: "c1", Objective: "OUTCOME_SALES", PlatformKey: "meta"},
		d(250),
		ResultMetrics{Purchases: d(5), Revenue: d(1000)},
	)

	require.Equal(t, CategoryPurchases, snap.Category)
	require.Equal(t, "Purchases", snap.ResultLabel)
	require.True(t, d(5).Equal(snap.ResultValue))
	require.True(t, snap.CostPerResult.Valid)
	require.True(t, d(50).Equal(snap.CostPerResult.Decimal))
	require.True(t, snap.ROAS.Valid)
	require.True(t, d(4).Equal(snap.ROAS.Decimal))
}

func TestCompute_MessagingTakesLargerConversationCounter(t *testing.T) {
	snap := Compute(
		metrics.Campaign{Objective: "OUTCOME_MESSAGES", PlatformKey: "meta"},
		d(120),
		ResultMetrics{ConversationsStarted: d(0), Conversations: d(12)},
	)

	require.Equal(t, CategoryConversations, snap.Category)
	require.True(t, d(12).Equal(snap.ResultValue))
	require.True(t, d(10).Equal(snap.CostPerResult.Decimal))
	require.False(t, snap.ROAS.Valid)
}

func TestCompute_GoogleAdsFallsBackToClicks(t *testing.T) {
	snap := Compute(
		metrics.Campaign{Objective: "UNRECOGNIZED_TYPE", PlatformKey: "google_ads"},
		d(68),
		ResultMetrics{Clicks: d(340)},
	)

	require.Equal(t, CategoryClicks, snap.Category)
	require.True(t, d(340).Equal(snap.ResultValue))
	require.True(t, decimal.RequireFromString("0.2").Equal(snap.CostPerResult.Decimal))
}

func TestCompute_UnknownObjective(t *testing.T) {
	snap := Compute(metrics.Campaign{Objective: "SOMETHING"}, d(50), ResultMetrics{Clicks: d(10)})

	require.Equal(t, CategoryUnknown, snap.Category)
	require.Equal(t, "Resultados", snap.ResultLabel)
	require.True(t, snap.ResultValue.IsZero())
	require.False(t, snap.CostPerResult.Valid)
}

func TestCostPerResult_NullWhenNoResults(t *testing.T) {
	require.False(t, CostPerResult(d(100), decimal.Zero).Valid)
	require.False(t, CostPerResult(d(100), d(-3)).Valid)
	require.False(t, CostPerResult(d(100), decimal.Decimal{}).Valid)

	got := CostPerResult(decimal.Zero, d(4))
	require.True(t, got.Valid)
	require.True(t, got.Decimal.IsZero())
}

func TestROAS_Guard(t *testing.T) {
	tests := []struct {
		name      string
		revenue   decimal.Decimal
		spend     decimal.Decimal
		objective string
		want      string // empty = null
	}{
		{"sales", d(1000), d(250), "OUTCOME_SALES", "4"},
		{"leads objective never has roas", d(1000), d(250), "OUTCOME_LEADS", ""},
		{"no revenue", decimal.Zero, d(250), "OUTCOME_SALES", ""},
		{"no spend", d(1000), decimal.Zero, "OUTCOME_SALES", ""},
		{"negative revenue", d(-5), d(250), "OUTCOME_SALES", ""},
		{"unknown objective", d(1000), d(250), "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ROAS(tc.revenue, tc.spend, tc.objective)
			if tc.want == "" {
				require.False(t, got.Valid)
				return
			}
			require.True(t, got.Valid)
			require.True(t, decimal.RequireFromString(tc.want).Equal(got.Decimal), "got %s", got.Decimal)
		})
	}
}

func TestResultMetricsAdd(t *testing.T) {
	sum := ResultMetrics{Leads: d(1), Revenue: d(10)}.Add(ResultMetrics{Leads: d(2), Clicks: d(7)})
	require.True(t, d(3).Equal(sum.Leads))
	require.True(t, d(7).Equal(sum.Clicks))
	require.True(t, d(10).Equal(sum.Revenue))
}
