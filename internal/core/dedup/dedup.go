// Package dedup reduces repeated sync rows to one canonical row per identity.
package dedup

import (
	"sort"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
)

// Deduplicate keeps one item per key in a single pass.
// newer(candidate, current) decides whether candidate replaces the kept item;
// when it returns false the first-seen item stays. Output follows the order in
// which each key first appeared, so the result is stable for a stable input.
func Deduplicate[T any, K comparable](items []T, key func(T) K, newer func(candidate, current T) bool) []T {
	if len(items) == 0 {
		return nil
	}

	index := make(map[K]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		pos, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, item)
			continue
		}
		if newer(item, out[pos]) {
			out[pos] = item
		}
	}
	return out
}

// Records returns the canonical record for every identity key: the one with the
// latest SyncedAt. A missing SyncedAt is the earliest possible value, and an
// equal SyncedAt never replaces the current pick.
func Records(records []metrics.MetricRecord) []metrics.MetricRecord {
	return Deduplicate(records, identityKey, syncedLater)
}

// Dropped reports how many rows Records would discard for the given input.
func Dropped(records []metrics.MetricRecord, canonical []metrics.MetricRecord) int {
	return len(records) - len(canonical)
}

// SortForDedup orders records by SyncedAt ascending, then ID, without mutating
// the input. Feeding the result to Records makes the canonical pick independent
// of the order the store returned rows in.
func SortForDedup(records []metrics.MetricRecord) []metrics.MetricRecord {
	sorted := make([]metrics.MetricRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.SyncedAt.Equal(b.SyncedAt) {
			return a.SyncedAt.Before(b.SyncedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}

func identityKey(r metrics.MetricRecord) metrics.IdentityKey {
	return r.Identity()
}

func syncedLater(candidate, current metrics.MetricRecord) bool {
	return candidate.SyncedAt.After(current.SyncedAt)
}
