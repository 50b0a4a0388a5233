package due

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/recur/internal/model"
)

func TestComputeRemainingUnits(t *testing.T) {
	const last = int64(1_000_000)
	cases := []struct {
		unit model.TimeUnit
		freq int
		want int64
	}{
		{model.Minute, 5, 5 * 60_000},
		{model.Hour, 2, 2 * 3_600_000},
		{model.Day, 3, 3 * 86_400_000},
	}
	for _, tc := range cases {
		r := ComputeRemaining(last, last, tc.freq, tc.unit)
		assert.Equal(t, tc.want, r.Ms, tc.unit)
		assert.False(t, r.Overdue, tc.unit)
	}
}

func TestComputeRemainingOverdueBoundary(t *testing.T) {
	interval := int64(3_600_000)
	now := int64(50_000_000)

	r := ComputeRemaining(now, now-interval, 1, model.Hour)
	assert.True(t, r.Overdue, "remaining == 0 counts as overdue")
	assert.Equal(t, int64(0), r.Ms)

	r = ComputeRemaining(now, now-(interval+1), 1, model.Hour)
	assert.True(t, r.Overdue)

	r = ComputeRemaining(now, now-(interval-1), 1, model.Hour)
	assert.False(t, r.Overdue)
	assert.Equal(t, int64(1), r.Ms)
}

func TestComputeRemainingMonotonicSingleCrossing(t *testing.T) {
	for _, unit := range []model.TimeUnit{model.Minute, model.Hour, model.Day} {
		last := int64(0)
		step := unit.Millis() / 7
		prev := ComputeRemaining(last, last, 2, unit)
		crossings := 0
		for now := step; now < 4*unit.Millis(); now += step {
			r := ComputeRemaining(now, last, 2, unit)
			require.Less(t, r.Ms, prev.Ms)
			if r.Overdue && !prev.Overdue {
				crossings++
			}
			prev = r
		}
		assert.Equal(t, 1, crossings, unit)
	}
}

func TestFormatRemaining(t *testing.T) {
	ms := func(d time.Duration) Remaining { return Remaining{Ms: d.Milliseconds()} }
	cases := []struct {
		in   Remaining
		want string
	}{
		{ms(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 999*time.Millisecond), "2d 03h 04m 05s"},
		{ms(3*time.Hour + 4*time.Minute + 5*time.Second), "03h 04m 05s"},
		{ms(13*time.Hour + 5*time.Second), "13h 00m 05s"},
		{ms(4*time.Minute + 5*time.Second), "04m 05s"},
		{ms(5*time.Second + 900*time.Millisecond), "00m 05s"},
		{ms(999 * time.Millisecond), "00m 00s"},
		{ms(24 * time.Hour), "1d 00h 00m 00s"},
		{Remaining{Ms: -5, Overdue: true}, OverdueLabel},
		{Remaining{Ms: 0, Overdue: true}, OverdueLabel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRemaining(tc.in))
	}
}
