package due

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	overdue  = Remaining{Ms: -1, Overdue: true}
	upcoming = Remaining{Ms: 10_000}
)

func TestTriggerFiresOncePerTransition(t *testing.T) {
	var tr Trigger
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.False(t, tr.Observe(now, upcoming))
	assert.Equal(t, Pending, tr.State())

	assert.True(t, tr.Observe(now.Add(time.Second), overdue))
	assert.Equal(t, Notified, tr.State())

	for i := 2; i < 300; i++ {
		assert.False(t, tr.Observe(now.Add(time.Duration(i)*time.Second), overdue))
	}
}

func TestTriggerResetRearms(t *testing.T) {
	var tr Trigger
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, tr.Observe(now, overdue))
	tr.Reset()
	assert.Equal(t, Pending, tr.State())

	// completed then not overdue for a while
	assert.False(t, tr.Observe(now.Add(30*time.Second), upcoming))
	assert.True(t, tr.Observe(now.Add(2*time.Minute), overdue))
}

func TestTriggerSuppressWindow(t *testing.T) {
	var tr Trigger
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, tr.Observe(now, overdue))
	tr.Reset()

	// a one-minute task completed and overdue again within the window
	assert.False(t, tr.Observe(now.Add(20*time.Second), overdue))
	assert.Equal(t, Pending, tr.State())
	assert.False(t, tr.Observe(now.Add(59*time.Second), overdue))

	assert.True(t, tr.Observe(now.Add(SuppressWindow), overdue))
	assert.Equal(t, now.Add(SuppressWindow), tr.LastFired())
}
