package due

import "time"

// SuppressWindow is the minimum spacing between two notifications for the
// same task.
const SuppressWindow = 60 * time.Second

// State of a task's overdue trigger.
type State int

const (
	Pending State = iota
	Notified
)

func (s State) String() string {
	if s == Notified {
		return "notified"
	}
	return "pending"
}

// Trigger fires once on the transition into overdue. It is reset by a
// completion, or implicitly when the task is observed not overdue again.
type Trigger struct {
	state     State
	lastFired time.Time
}

func (t *Trigger) State() State { return t.state }

// LastFired is the zero time if the trigger never fired.
func (t *Trigger) LastFired() time.Time { return t.lastFired }

// Observe feeds one evaluation into the trigger and reports whether a
// notification should be sent now. A transition inside SuppressWindow of
// the previous fire stays Pending, so a later poll may still fire once the
// window has passed.
func (t *Trigger) Observe(now time.Time, r Remaining) bool {
	if !r.Overdue {
		t.state = Pending
		return false
	}
	if t.state == Notified {
		return false
	}
	if !t.lastFired.IsZero() && now.Sub(t.lastFired) < SuppressWindow {
		return false
	}
	t.state = Notified
	t.lastFired = now
	return true
}

// Reset re-arms the trigger after a completion. The suppression window is
// kept.
func (t *Trigger) Reset() { t.state = Pending }
