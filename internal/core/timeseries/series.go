// Package timeseries turns resolved per-date totals into ordered chart points
// and window summaries.
package timeseries

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
	"github.com/shopspring/decimal"
)

// Point is one charted date.
type Point struct {
	Date    time.Time
	Spend   decimal.Decimal
	Results decimal.Decimal
	Revenue decimal.Decimal
}

// MarshalJSON renders Date as YYYY-MM-DD.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date    string          `json:"date"`
		Spend   decimal.Decimal `json:"spend"`
		Results decimal.Decimal `json:"results"`
		Revenue decimal.Decimal `json:"revenue"`
	}{
		Date:    p.Date.Format(metrics.DateLayout),
		Spend:   p.Spend,
		Results: p.Results,
		Revenue: p.Revenue,
	})
}

// Summary totals a whole window.
type Summary struct {
	Spend      decimal.Decimal `json:"spend"`
	Results    decimal.Decimal `json:"results"`
	Revenue    decimal.Decimal `json:"revenue"`
	ActiveDays int             `json:"active_days"`
}

// Build orders points ascending by date, merging points that share a date and
// dropping dates outside a bounded window.
//
// The series is sparse: dates without data are absent. With dense set, every
// calendar day of the window is present and missing days are zero. An unbounded
// window is densified between the first and last point.
func Build(points []Point, window Window, dense bool) []Point {
	byDate := make(map[time.Time]Point, len(points))
	for _, p := range points {
		date := metrics.DateOf(p.Date)
		if !window.Contains(date) {
			continue
		}
		acc, ok := byDate[date]
		if !ok {
			acc = zeroPoint(date)
		}
		acc.Spend = acc.Spend.Add(p.Spend)
		acc.Results = acc.Results.Add(p.Results)
		acc.Revenue = acc.Revenue.Add(p.Revenue)
		byDate[date] = acc
	}

	if dense {
		span := window
		if span.IsZero() && len(byDate) > 0 {
			span = boundsOf(byDate)
		}
		for _, date := range span.Dates() {
			if _, ok := byDate[date]; !ok {
				byDate[date] = zeroPoint(date)
			}
		}
	}

	out := make([]Point, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Summarize totals points. ActiveDays counts points with any spend, results or revenue.
func Summarize(points []Point) Summary {
	s := Summary{Spend: decimal.Zero, Results: decimal.Zero, Revenue: decimal.Zero}
	for _, p := range points {
		s.Spend = s.Spend.Add(p.Spend)
		s.Results = s.Results.Add(p.Results)
		s.Revenue = s.Revenue.Add(p.Revenue)
		if !p.Spend.IsZero() || !p.Results.IsZero() || !p.Revenue.IsZero() {
			s.ActiveDays++
		}
	}
	return s
}

func zeroPoint(date time.Time) Point {
	return Point{Date: date, Spend: decimal.Zero, Results: decimal.Zero, Revenue: decimal.Zero}
}

func boundsOf(byDate map[time.Time]Point) Window {
	var w Window
	for date := range byDate {
		if w.From.IsZero() || date.Before(w.From) {
			w.From = date
		}
		if w.To.IsZero() || date.After(w.To) {
			w.To = date
		}
	}
	return w
}
