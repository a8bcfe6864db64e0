package kpi

import "strings"

// Category is the result family a campaign objective maps to.
type Category string

const (
	CategoryLeads         Category = "Leads"
	CategoryConversations Category = "Conversations"
	CategoryClicks        Category = "Clicks"
	CategoryEngagements   Category = "Engagements"
	CategoryViews         Category = "Views"
	CategoryPurchases     Category = "Purchases"
	CategoryUnknown       Category = "Unknown"
)

// GoogleAdsPlatformKey marks campaigns that fall back to clicks when their
// objective is not recognized.
const GoogleAdsPlatformKey = "google_ads"

// unknownLabel is shown for objectives that match no rule.
const unknownLabel = "Resultados"

// Label is the display label of the primary result.
func (c Category) Label() string {
	if c == CategoryUnknown || c == "" {
		return unknownLabel
	}
	return string(c)
}

// IsCommerce reports whether ROAS is meaningful for the category.
func (c Category) IsCommerce() bool {
	return c == CategoryPurchases
}

// Rule maps an objective to a category when the upper-cased objective contains
// any of the substrings.
type Rule struct {
	Category Category
	Contains []string
}

// Rules is evaluated in order; the first matching rule wins.
// "POST_ENGAGEMENT" is covered by the ENGAGEMENT substring.
var Rules = []Rule{
	{Category: CategoryLeads, Contains: []string{"LEAD"}},
	{Category: CategoryConversations, Contains: []string{"MESSAGE"}},
	{Category: CategoryClicks, Contains: []string{"LINK_CLICKS", "TRAFFIC"}},
	{Category: CategoryEngagements, Contains: []string{"ENGAGEMENT"}},
	{Category: CategoryViews, Contains: []string{"VIDEO_VIEWS"}},
	{Category: CategoryPurchases, Contains: []string{"SALES", "PURCHASE", "CONVERSIONS"}},
}

// Classify maps a free-text objective to its category. Matching is a
// case-insensitive substring test against Rules. Unmatched Google Ads campaigns
// count clicks; anything else is Unknown.
func Classify(objective, platformKey string) Category {
	obj := strings.ToUpper(strings.TrimSpace(objective))
	if obj != "" {
		for _, rule := range Rules {
			for _, needle := range rule.Contains {
				if strings.Contains(obj, needle) {
					return rule.Category
				}
			}
		}
	}
	if platformKey == GoogleAdsPlatformKey {
		return CategoryClicks
	}
	return CategoryUnknown
}
