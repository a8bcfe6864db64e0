package timeseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adpulse-lab/adpulse/internal/core/metrics"
)

// Window is an inclusive range of calendar dates at UTC midnight.
// The zero Window is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow builds a window from two dates, truncating both to UTC midnight.
func NewWindow(from, to time.Time) (Window, error) {
	w := Window{From: metrics.DateOf(from), To: metrics.DateOf(to)}
	if w.To.Before(w.From) {
		return Window{}, fmt.Errorf("window end %s is before start %s",
			w.To.Format(metrics.DateLayout), w.From.Format(metrics.DateLayout))
	}
	return w, nil
}

// WindowFor returns the last `days` complete days before now: [today-days, today-1].
// Today is excluded because its rows are still being synced.
func WindowFor(now time.Time, days int) Window {
	if days < 1 {
		days = 1
	}
	today := metrics.DateOf(now)
	return Window{
		From: today.AddDate(0, 0, -days),
		To:   today.AddDate(0, 0, -1),
	}
}

// ParsePeriod parses a period such as "30d" (or a bare "30") into a day count.
func ParsePeriod(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("period must not be empty")
	}
	days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil {
		return 0, fmt.Errorf("invalid period %q: %w", s, err)
	}
	if days <= 0 {
		return 0, fmt.Errorf("period must be positive, got %q", s)
	}
	return days, nil
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether the calendar date of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	d := metrics.DateOf(t)
	return !d.Before(w.From) && !d.After(w.To)
}

// Days is the number of calendar days covered, or 0 for an unbounded window.
func (w Window) Days() int {
	if w.IsZero() {
		return 0
	}
	return int(w.To.Sub(w.From).Hours()/24) + 1
}

// Dates lists every calendar day of the window in ascending order.
func (w Window) Dates() []time.Time {
	n := w.Days()
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, w.From.AddDate(0, 0, i))
	}
	return out
}

// String renders the window as "from..to".
func (w Window) String() string {
	if w.IsZero() {
		return "all"
	}
	return w.From.Format(metrics.DateLayout) + ".." + w.To.Format(metrics.DateLayout)
}
