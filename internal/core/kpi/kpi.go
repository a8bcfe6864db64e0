// Package kpi turns a campaign's objective and reconciled totals into its
// primary result, cost per result and guarded ROAS.
package kpi

import (
	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/shopspring/decimal"
)

// ResultMetrics are the candidate result counters of a row or window.
type ResultMetrics struct {
	Leads                decimal.Decimal `json:"leads"`
	ConversationsStarted decimal.Decimal `json:"conversations_started"`
	Conversations        decimal.Decimal `json:"conversations"`
	Clicks               decimal.Decimal `json:"clicks"`
	Engagements          decimal.Decimal `json:"engagements"`
	VideoViews           decimal.Decimal `json:"video_views"`
	Purchases            decimal.Decimal `json:"purchases"`
	Revenue              decimal.Decimal `json:"revenue"`
}

// Add returns the field-wise sum.
func (m ResultMetrics) Add(o ResultMetrics) ResultMetrics {
	return ResultMetrics{
		Leads:                m.Leads.Add(o.Leads),
		ConversationsStarted: m.ConversationsStarted.Add(o.ConversationsStarted),
		Conversations:        m.Conversations.Add(o.Conversations),
		Clicks:               m.Clicks.Add(o.Clicks),
		Engagements:          m.Engagements.Add(o.Engagements),
		VideoViews:           m.VideoViews.Add(o.VideoViews),
		Purchases:            m.Purchases.Add(o.Purchases),
		Revenue:              m.Revenue.Add(o.Revenue),
	}
}

// Snapshot is the KPI card of one campaign over one reporting window.
// It is always recomputed from reconciled rows, never stored as a source of truth.
type Snapshot struct {
	Category      Category            `json:"category"`
	ResultLabel   string              `json:"result_label"`
	ResultValue   decimal.Decimal     `json:"result_value"`
	CostPerResult decimal.NullDecimal `json:"cost_per_result"`
	Spend         decimal.Decimal     `json:"spend"`
	ROAS          decimal.NullDecimal `json:"roas"`
}

// ResultValue picks the counter that is "the result" for a category.
// Conversations take the larger of the two conversation counters because
// platforms report them under either name.
func ResultValue(category Category, m ResultMetrics) decimal.Decimal {
	switch category {
	case CategoryLeads:
		return m.Leads
	case CategoryConversations:
		return decimal.Max(m.ConversationsStarted, m.Conversations)
	case CategoryClicks:
		return m.Clicks
	case CategoryEngagements:
		return m.Engagements
	case CategoryViews:
		return m.VideoViews
	case CategoryPurchases:
		return m.Purchases
	default:
		return decimal.Zero
	}
}

// CostPerResult is spend / resultValue, or null when resultValue <= 0.
func CostPerResult(spend, resultValue decimal.Decimal) decimal.NullDecimal {
	if !resultValue.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(spend.Div(resultValue))
}

// ROAS is revenue / spend for commerce objectives only. It is null for every
// other objective, and when revenue or spend is not positive.
func ROAS(revenue, spend decimal.Decimal, objective string) decimal.NullDecimal {
	return roasFor(Classify(objective, ""), revenue, spend)
}

func roasFor(category Category, revenue, spend decimal.Decimal) decimal.NullDecimal {
	if !category.IsCommerce() || !revenue.IsPositive() || !spend.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(revenue.Div(spend))
}

// Compute builds the snapshot of a campaign from its window spend and result counters.
func Compute(campaign metrics.Campaign, spend decimal.Decimal, results ResultMetrics) Snapshot {
	category := Classify(campaign.Objective, campaign.PlatformKey)
	value := ResultValue(category, results)
	return Snapshot{
		Category:      category,
		ResultLabel:   category.Label(),
		ResultValue:   value,
		CostPerResult: CostPerResult(spend, value),
		Spend:         spend,
		ROAS:          roasFor(category, results.Revenue, spend),
	}
}
