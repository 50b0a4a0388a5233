package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeUnit is the unit of a task's repeat interval.
type TimeUnit string

const (
	Minute TimeUnit = "minute"
	Hour   TimeUnit = "hour"
	Day    TimeUnit = "day"
)

const (
	minuteMs int64 = 60_000
	hourMs   int64 = 3_600_000
	dayMs    int64 = 86_400_000
)

// Millis is the length of one unit in milliseconds. Unknown units count as
// hours, matching records written before units existed.
func (u TimeUnit) Millis() int64 {
	switch u {
	case Minute:
		return minuteMs
	case Day:
		return dayMs
	default:
		return hourMs
	}
}

func (u TimeUnit) Valid() bool {
	return u == Minute || u == Hour || u == Day
}

// Short is the one-letter suffix used by ParseInterval.
func (u TimeUnit) Short() string {
	switch u {
	case Minute:
		return "m"
	case Day:
		return "d"
	default:
		return "h"
	}
}

// ParseTimeUnit accepts minute/hour/day, their plurals and m/h/d.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "min", "mins", "minute", "minutes":
		return Minute, nil
	case "h", "hr", "hrs", "hour", "hours":
		return Hour, nil
	case "d", "day", "days":
		return Day, nil
	}
	return "", fmt.Errorf("%w %q (want minute, hour or day)", ErrBadUnit, s)
}

var intervalRe = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]+)$`)

// ParseInterval parses strings like "30m", "2h", "1 day".
func ParseInterval(s string) (int, TimeUnit, error) {
	m := intervalRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", fmt.Errorf("%w %q (examples: 30m, 2h, 1d)", ErrBadInterval, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", fmt.Errorf("%w %q: %v", ErrBadInterval, s, err)
	}
	if n <= 0 {
		return 0, "", ErrBadFrequency
	}
	u, err := ParseTimeUnit(m[2])
	if err != nil {
		return 0, "", err
	}
	return n, u, nil
}

// FormatInterval renders a frequency and unit the way ParseInterval reads them.
func FormatInterval(frequency int, u TimeUnit) string {
	return strconv.Itoa(frequency) + u.Short()
}
