// Package due computes how long a task has left before it is due again and
// tracks the edge into the overdue state.
package due

import (
	"fmt"
	"time"

	"github.com/idilsaglam/recur/internal/model"
)

// OverdueLabel replaces the countdown once a task is due.
const OverdueLabel = "Overdue"

// Remaining is the time left until a task is due.
type Remaining struct {
	Ms      int64
	Overdue bool
}

// ComputeRemaining returns the time between now and lastCompleted plus the
// task interval. All timestamps are milliseconds since epoch.
func ComputeRemaining(now, lastCompleted int64, frequency int, unit model.TimeUnit) Remaining {
	dueAt := lastCompleted + int64(frequency)*unit.Millis()
	ms := dueAt - now
	return Remaining{Ms: ms, Overdue: ms <= 0}
}

// ForTask is ComputeRemaining for a stored task.
func ForTask(t model.Task, now time.Time) Remaining {
	return ComputeRemaining(now.UnixMilli(), t.LastCompleted, t.Frequency, t.TimeUnit)
}

func (r Remaining) Duration() time.Duration {
	return time.Duration(r.Ms) * time.Millisecond
}

// String renders the countdown, e.g. "2d 03h 04m 05s", "03h 04m 05s",
// "04m 05s", "00m 05s" or OverdueLabel.
func (r Remaining) String() string { return FormatRemaining(r) }

// FormatRemaining truncates at every unit boundary; nothing is rounded up.
func FormatRemaining(r Remaining) string {
	if r.Overdue {
		return OverdueLabel
	}
	total := r.Ms / 1000
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%02dm %02ds", minutes, seconds)
	}
}
