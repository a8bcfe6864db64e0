package hierarchy

import "github.com/adpulse-lab/adpulse/internal/core/metrics"

// Level is the rollup level a record summarizes.
type Level string

const (
	LevelNone     Level = ""
	LevelAd       Level = "ad"
	LevelAdSet    Level = "ad_set"
	LevelCampaign Level = "campaign"
	LevelAccount  Level = "account"
)

// Levels is the resolution priority, most granular first.
// When a date has rows at several levels, the first level present wins.
var Levels = []Level{LevelAd, LevelAdSet, LevelCampaign, LevelAccount}

// LevelOf infers the rollup level from which leaf identifier is populated.
func LevelOf(r metrics.MetricRecord) Level {
	switch {
	case r.AdID != "":
		return LevelAd
	case r.AdSetID != "":
		return LevelAdSet
	case r.CampaignID != "":
		return LevelCampaign
	default:
		return LevelAccount
	}
}

// Priority returns the index of l in Levels; lower is preferred. Unknown levels sort last.
func Priority(l Level) int {
	for i, candidate := range Levels {
		if candidate == l {
			return i
		}
	}
	return len(Levels)
}

// Summable reports whether many rows at this level share one date under one parent.
// Ad and ad-set rows are summed; campaign and account rows are single by construction.
func Summable(l Level) bool {
	return l == LevelAd || l == LevelAdSet
}
