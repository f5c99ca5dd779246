package report

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the calendar unit a statistics bucket covers
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity parses a granularity name, case-insensitively
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("unknown granularity %q", s)
	}
	return g, nil
}

// IsValid checks if the granularity is known
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// Start returns the beginning of the bucket containing t, in t's location.
// Weeks start on Monday.
func (g Granularity) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case GranularityWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case GranularityMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case GranularityYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// Shift moves a bucket start by n buckets. Calendar arithmetic keeps
// midnight across DST changes.
func (g Granularity) Shift(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	loc := start.Location()
	switch g {
	case GranularityWeek:
		return time.Date(y, m, d+7*n, 0, 0, 0, 0, loc)
	case GranularityMonth:
		return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, loc)
	case GranularityYear:
		return time.Date(y+n, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d+n, 0, 0, 0, 0, loc)
	}
}

// Label formats the bucket starting at start
func (g Granularity) Label(start time.Time) string {
	switch g {
	case GranularityWeek:
		end := start.AddDate(0, 0, 6)
		return start.Format("2006-01-02") + " - " + end.Format("2006-01-02")
	case GranularityMonth:
		return start.Format("2006-01")
	case GranularityYear:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

// ShortLabel abbreviates a bucket label for narrow chart axes: the start
// date of a week, the month number of a month.
func (g Granularity) ShortLabel(label string) string {
	switch g {
	case GranularityWeek:
		if i := strings.Index(label, " - "); i >= 0 {
			return label[:i]
		}
	case GranularityMonth:
		if len(label) >= 2 {
			return label[len(label)-2:]
		}
	}
	return label
}

// Window is a contiguous run of buckets. End is exclusive.
type Window struct {
	Granularity Granularity
	Start       time.Time
	End         time.Time
}

// LastN returns the window of n buckets ending with the bucket containing now.
// n below 1 is treated as 1.
func LastN(g Granularity, n int, now time.Time, loc *time.Location) Window {
	if n < 1 {
		n = 1
	}
	if loc == nil {
		loc = time.Local
	}
	current := g.Start(now.In(loc))
	return Window{
		Granularity: g,
		Start:       g.Shift(current, -(n - 1)),
		End:         g.Shift(current, 1),
	}
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Starts returns the start of every bucket in the window, ascending
func (w Window) Starts() []time.Time {
	var starts []time.Time
	for s := w.Start; s.Before(w.End); s = w.Granularity.Shift(s, 1) {
		starts = append(starts, s)
	}
	return starts
}
