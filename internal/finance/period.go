// Package finance derives the income statement (DRE), cash flow and loan
// figures from a ledger snapshot. Every function is a pure function of its
// arguments; nothing here performs I/O or keeps state between calls.
package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"financeiro/internal/core"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period is an inclusive [Start, End] window. A period with either bound
// missing does not filter at all.
type Period struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// AllTime is the unfiltered window.
var AllTime = Period{}

// Bounded reports whether both bounds are set.
func (p Period) Bounded() bool {
	return !p.Start.IsEmpty() && !p.End.IsEmpty()
}

// Contains reports whether d falls inside the window. Inside an unbounded
// period everything matches, including empty dates; inside a bounded one
// an empty date never matches.
func (p Period) Contains(d core.Date) bool {
	if !p.Bounded() {
		return true
	}
	if d.IsEmpty() {
		return false
	}
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// Key identifies the window for caching.
func (p Period) Key() string {
	if !p.Bounded() {
		return "all"
	}
	return p.Start.UTC().Format(time.RFC3339Nano) + "/" + p.End.UTC().Format(time.RFC3339Nano)
}

// ParsePeriod builds a period from optional bound strings. Blank bounds are
// allowed and leave the period unbounded; a bound that is present but not
// a date fails with ErrInvalidPeriod.
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	if s := strings.TrimSpace(start); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return Period{}, fmt.Errorf("%w: start %q", ErrInvalidPeriod, start)
		}
		p.Start = d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return Period{}, fmt.Errorf("%w: end %q", ErrInvalidPeriod, end)
		}
		p.End = d
	}
	return p, nil
}

// MonthPeriod spans the first to the last instant of a calendar month.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Period{Start: core.Date{Time: start}, End: core.Date{Time: end}}
}

// FilterByPeriod returns the items whose date lies within p. The input is
// returned as is when p is unbounded and never modified otherwise.
func FilterByPeriod[T any](items []T, p Period, date func(T) core.Date) []T {
	if !p.Bounded() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if p.Contains(date(it)) {
			out = append(out, it)
		}
	}
	return out
}
