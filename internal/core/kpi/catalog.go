package kpi

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"os"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Result counter names accepted under `counters:` in a catalog file.
const (
	CounterLeads                = "leads"
	CounterConversationsStarted = "conversations_started"
	CounterConversations        = "conversations"
	CounterEngagements          = "engagements"
	CounterVideoViews           = "video_views"
	CounterPurchases            = "purchases"
)

var knownCounters = map[string]struct{}{
	CounterLeads:                {},
	CounterConversationsStarted: {},
	CounterConversations:        {},
	CounterEngagements:          {},
	CounterVideoViews:           {},
	CounterPurchases:            {},
}

// Catalog maps platform action types onto result counters.
// It is loaded once at startup and fingerprinted so cached snapshots built
// from a different catalog are never reused.
type Catalog struct {
	Counters            map[string][]string
	RevenueActions      []string
	PrimaryConversions  []string
	FallbackConversions []string
	Labels              map[string]string
	Fingerprint         string // SHA-256 of the raw YAML
}

// rawCatalog is the on-disk YAML shape.
type rawCatalog struct {
	Counters            map[string][]string `yaml:"counters"`
	RevenueActions      []string            `yaml:"revenue_actions"`
	PrimaryConversions  []string            `yaml:"primary_conversions"`
	FallbackConversions []string            `yaml:"fallback_conversions"`
	Labels              map[string]string   `yaml:"labels"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded action catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file. An empty path selects the embedded default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading action catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parsing action catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.Counters) == 0 {
		return nil, fmt.Errorf("catalog defines no counters")
	}
	for name, actions := range raw.Counters {
		if _, ok := knownCounters[name]; !ok {
			return nil, fmt.Errorf("unsupported counter %q", name)
		}
		for _, a := range actions {
			if a == "" {
				return nil, fmt.Errorf("counter %q: empty action type", name)
			}
		}
	}

	labels := raw.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	return &Catalog{
		Counters:            raw.Counters,
		RevenueActions:      raw.RevenueActions,
		PrimaryConversions:  raw.PrimaryConversions,
		FallbackConversions: raw.FallbackConversions,
		Labels:              labels,
		Fingerprint:         fmt.Sprintf("%x", sha256.Sum256(data)),
	}, nil
}

// Extract derives the result counters of one record.
// Clicks come from the clicks column. Purchases fall back to the conversions
// column and revenue to the purchase action value when the row lacks them.
func (c *Catalog) Extract(r metrics.MetricRecord) ResultMetrics {
	extra := r.ExtraMetrics
	out := ResultMetrics{
		Leads:                c.firstAction(extra, CounterLeads),
		ConversationsStarted: c.firstAction(extra, CounterConversationsStarted),
		Conversations:        c.firstAction(extra, CounterConversations),
		Clicks:               decimal.NewFromInt(max(r.Clicks, 0)),
		Engagements:          c.firstAction(extra, CounterEngagements),
		VideoViews:           c.firstAction(extra, CounterVideoViews),
		Purchases:            c.firstAction(extra, CounterPurchases),
		Revenue:              r.ConversionValue,
	}

	if !c.hasAny(extra, c.Counters[CounterPurchases]) && r.Conversions.IsPositive() {
		out.Purchases = r.Conversions
	}
	if !out.Revenue.IsPositive() {
		out.Revenue = decimal.Zero
		for _, actionType := range c.RevenueActions {
			if v := extra.ActionValue(actionType); v.IsPositive() {
				out.Revenue = v
				break
			}
		}
	}
	return out
}

// PrimaryConversion resolves the headline conversion count of a row: the first
// primary action present, then the first fallback action, then fallback itself.
// actionType is empty when the fallback value was used.
func (c *Catalog) PrimaryConversion(extra metrics.ExtraMetrics, fallback decimal.Decimal) (decimal.Decimal, string) {
	for _, list := range [][]string{c.PrimaryConversions, c.FallbackConversions} {
		for _, actionType := range list {
			if extra.HasAction(actionType) {
				return extra.Action(actionType), actionType
			}
		}
	}
	return fallback, ""
}

// ActionLabel returns the display label of an action type.
func (c *Catalog) ActionLabel(actionType string) string {
	if actionType == "" {
		return "Recorded conversions"
	}
	if label, ok := c.Labels[actionType]; ok {
		return label
	}
	return actionType
}

func (c *Catalog) firstAction(extra metrics.ExtraMetrics, counter string) decimal.Decimal {
	for _, actionType := range c.Counters[counter] {
		if extra.HasAction(actionType) {
			return extra.Action(actionType)
		}
	}
	return decimal.Zero
}

func (c *Catalog) hasAny(extra metrics.ExtraMetrics, actionTypes []string) bool {
	for _, actionType := range actionTypes {
		if extra.HasAction(actionType) {
			return true
		}
	}
	return false
}
