package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyTitle   = errors.New("empty title")
	ErrBadFrequency = errors.New("frequency must be a positive integer")
	ErrBadUnit      = errors.New("unknown time unit")
	ErrBadInterval  = errors.New("bad interval")
)

// Task is a recurring reminder. LastCompleted is milliseconds since epoch and
// only ever moves forward.
type Task struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Frequency     int      `json:"frequency" yaml:"frequency"`
	TimeUnit      TimeUnit `json:"timeUnit" yaml:"timeUnit"`
	LastCompleted int64    `json:"lastCompleted" yaml:"lastCompleted"`
}

// IntervalMs is the repeat interval in milliseconds.
func (t Task) IntervalMs() int64 {
	return int64(t.Frequency) * t.TimeUnit.Millis()
}

func (t Task) Interval() time.Duration {
	return time.Duration(t.IntervalMs()) * time.Millisecond
}

// DueAt is the wall-clock time the task becomes due.
func (t Task) DueAt() time.Time {
	return time.UnixMilli(t.LastCompleted + t.IntervalMs())
}

// Normalize fills in fields that older records may lack.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if t.TimeUnit == "" {
		t.TimeUnit = Hour
	}
}

// Validate checks the invariants enforced at the input boundary, plus the
// unit, which stored records can carry in any spelling.
func (t Task) Validate() error {
	if err := ValidateTask(t.Title, t.Frequency); err != nil {
		return err
	}
	if !t.TimeUnit.Valid() {
		return fmt.Errorf("%w %q", ErrBadUnit, t.TimeUnit)
	}
	return nil
}

// ValidateTask rejects empty titles and non-positive frequencies.
func ValidateTask(title string, frequency int) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if frequency <= 0 {
		return ErrBadFrequency
	}
	return nil
}

// Millis converts a time.Time to the millisecond timestamps stored on disk.
func Millis(t time.Time) int64 { return t.UnixMilli() }
