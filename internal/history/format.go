package history

import (
	"fmt"
	"time"

	"github.com/idilsaglam/recur/internal/model"
)

// FormatStreak renders a streak count for display.
func FormatStreak(n int, short bool) string {
	if short {
		return fmt.Sprintf("%d in a row", n)
	}
	return fmt.Sprintf("%d days", n)
}

func (s Stats) CurrentStreakLabel() string { return FormatStreak(s.CurrentStreak, s.IsShortInterval) }
func (s Stats) BestStreakLabel() string    { return FormatStreak(s.BestStreak, s.IsShortInterval) }

// Recent returns up to n events, most recent first. n <= 0 means all.
func Recent(events []model.CompletionEvent, n int) []model.CompletionEvent {
	sorted := make([]model.CompletionEvent, len(events))
	copy(sorted, events)
	sortDesc(sorted)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Day is one calendar day of completions.
type Day struct {
	Date   time.Time
	Events []model.CompletionEvent
}

// GroupByDay buckets events by calendar day in loc, newest day first.
func GroupByDay(events []model.CompletionEvent, loc *time.Location) []Day {
	var out []Day
	for _, e := range Recent(events, 0) {
		y, m, d := e.Time().In(loc).Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if len(out) == 0 || !out[len(out)-1].Date.Equal(date) {
			out = append(out, Day{Date: date})
		}
		last := &out[len(out)-1]
		last.Events = append(last.Events, e)
	}
	return out
}

// FormatEventTime is the per-entry timestamp in history listings.
func FormatEventTime(e model.CompletionEvent, loc *time.Location) string {
	return e.Time().In(loc).Format("02 January, 15:04")
}
