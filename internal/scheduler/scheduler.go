// Package scheduler evaluates every task's due check from one tick source.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/idilsaglam/recur/internal/due"
	"github.com/idilsaglam/recur/internal/model"
)

// DefaultInterval gives whole-second countdown resolution.
const DefaultInterval = time.Second

// Due is a task whose trigger fired on this tick.
type Due struct {
	Task      model.Task
	Remaining due.Remaining
}

// Scheduler holds one overdue trigger per tracked task.
type Scheduler struct {
	mu       sync.Mutex
	triggers map[string]*due.Trigger
}

func New() *Scheduler {
	return &Scheduler{triggers: make(map[string]*due.Trigger)}
}

// Track starts checking id. It reports false if id was already tracked.
func (s *Scheduler) Track(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.triggers[id]; ok {
		return false
	}
	s.triggers[id] = &due.Trigger{}
	return true
}

// Untrack stops checking id. It reports false if id was not tracked.
func (s *Scheduler) Untrack(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.triggers[id]; !ok {
		return false
	}
	delete(s.triggers, id)
	return true
}

func (s *Scheduler) Tracking(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.triggers[id]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// Reset re-arms id after a completion.
func (s *Scheduler) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr, ok := s.triggers[id]; ok {
		tr.Reset()
	}
}

// State reports the trigger state of id.
func (s *Scheduler) State(id string) (due.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.triggers[id]
	if !ok {
		return due.Pending, false
	}
	return tr.State(), true
}

// Sync makes the tracked set equal to tasks. Triggers of tasks that stay
// tracked are kept.
func (s *Scheduler) Sync(tasks []model.Task) (added, removed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		want[t.ID] = struct{}{}
		if _, ok := s.triggers[t.ID]; !ok {
			s.triggers[t.ID] = &due.Trigger{}
			added = append(added, t.ID)
		}
	}
	for id := range s.triggers {
		if _, ok := want[id]; !ok {
			delete(s.triggers, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return added, removed
}

// Tick evaluates every tracked task in tasks at now and returns those whose
// trigger fired. Untracked tasks are skipped.
func (s *Scheduler) Tick(now time.Time, tasks []model.Task) []Due {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Due
	for _, t := range tasks {
		tr, ok := s.triggers[t.ID]
		if !ok {
			continue
		}
		r := due.ForTask(t, now)
		if tr.Observe(now, r) {
			out = append(out, Due{Task: t, Remaining: r})
		}
	}
	return out
}

// Run calls fn once immediately and then on every tick of a single ticker
// until ctx is done.
func Run(ctx context.Context, interval time.Duration, fn func(now time.Time)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(time.Now())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now)
		}
	}
}
