// Package history derives totals, streaks and achievements from the
// completion log. Everything here is a pure function of the log.
package history

import (
	"sort"
	"time"

	"github.com/idilsaglam/recur/internal/model"
)

const (
	// classifyWindow is how many recent events feed the interval average.
	classifyWindow = 10
	// shortIntervalMinutes is the average gap below which streaks are
	// counted per completion instead of per calendar day.
	shortIntervalMinutes = 1440.0
)

// Stats is the derived view of a completion log.
type Stats struct {
	TotalCompleted  int           `json:"totalCompleted"`
	UniqueTaskCount int           `json:"uniqueTaskCount"`
	CurrentStreak   int           `json:"currentStreak"`
	BestStreak      int           `json:"bestStreak"`
	IsShortInterval bool          `json:"isShortInterval"`
	AverageGapMin   float64       `json:"averageGapMinutes"`
	Achievements    []Achievement `json:"achievements"`
}

// Analyze computes Stats with calendar days in the local time zone.
func Analyze(events []model.CompletionEvent) Stats {
	return AnalyzeIn(events, time.Local)
}

// AnalyzeIn is Analyze with an explicit location for calendar-day streaks.
func AnalyzeIn(events []model.CompletionEvent, loc *time.Location) Stats {
	st := Stats{TotalCompleted: len(events)}
	ids := make(map[string]struct{}, len(events))
	for _, e := range events {
		ids[e.ID] = struct{}{}
	}
	st.UniqueTaskCount = len(ids)

	if len(events) == 0 {
		st.Achievements = evaluate(st)
		return st
	}

	sorted := make([]model.CompletionEvent, len(events))
	copy(sorted, events)
	sortDesc(sorted)

	st.AverageGapMin = averageGapMinutes(sorted)
	st.IsShortInterval = st.AverageGapMin < shortIntervalMinutes
	st.CurrentStreak, st.BestStreak = streaks(sorted, st.IsShortInterval, st.AverageGapMin, loc)
	st.Achievements = evaluate(st)
	return st
}

func sortDesc(events []model.CompletionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
}

func averageGapMinutes(sorted []model.CompletionEvent) float64 {
	n := len(sorted)
	if n > classifyWindow {
		n = classifyWindow
	}
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < n; i++ {
		sum += gapMinutes(sorted[i-1], sorted[i])
	}
	return sum / float64(n-1)
}

func gapMinutes(newer, older model.CompletionEvent) float64 {
	return float64(newer.Timestamp-older.Timestamp) / 60_000
}

// streaks walks the log newest to oldest. The current streak is the run
// that starts at the most recent event; best is the longest run anywhere.
func streaks(sorted []model.CompletionEvent, short bool, avgGap float64, loc *time.Location) (current, best int) {
	running := 1
	current, best = 1, 1
	trailing := true
	for i := 1; i < len(sorted); i++ {
		var continues bool
		if short {
			continues = gapMinutes(sorted[i-1], sorted[i]) <= 2*avgGap
		} else {
			continues = dayDiff(sorted[i-1].Time(), sorted[i].Time(), loc) <= 1
		}
		if !continues {
			running = 1
			trailing = false
			continue
		}
		running++
		if running > best {
			best = running
		}
		if trailing {
			current = running
		}
	}
	return current, best
}

// dayDiff counts calendar days between a and b in loc.
func dayDiff(a, b time.Time, loc *time.Location) int {
	d := dayNumber(a, loc) - dayNumber(b, loc)
	if d < 0 {
		d = -d
	}
	return int(d)
}

func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
