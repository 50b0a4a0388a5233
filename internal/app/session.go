// Package app holds the in-process session: the task collection, the
// completion log and the scheduler that watches them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/recur/internal/due"
	"github.com/idilsaglam/recur/internal/history"
	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/scheduler"
	"github.com/idilsaglam/recur/internal/store"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrAmbiguousTask = errors.New("task reference is ambiguous")
)

// Repository persists the two collections.
type Repository interface {
	Load(ctx context.Context) ([]model.Task, model.History, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
	SaveHistory(ctx context.Context, h model.History) error
}

type Option func(*Session)

func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.log = l } }

// WithIDs replaces uuid generation, for tests.
func WithIDs(next func() string) Option { return func(s *Session) { s.newID = next } }

// Session is safe for concurrent use; every mutation is written through to
// the repository before it returns.
type Session struct {
	mu    sync.Mutex
	repo  Repository
	clock Clock
	log   *slog.Logger
	newID func() string
	sched *scheduler.Scheduler

	tasks []model.Task
	hist  model.History
}

// Open loads persisted state and starts tracking every task.
func Open(ctx context.Context, repo Repository, opts ...Option) (*Session, error) {
	s := &Session{
		repo:  repo,
		clock: RealClock{},
		log:   slog.Default(),
		newID: func() string { return uuid.New().String() },
		sched: scheduler.New(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces in-memory state with what the repository holds. Triggers
// of tasks that still exist are kept.
func (s *Session) Reload(ctx context.Context) error {
	tasks, hist, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks, s.hist = tasks, hist
	added, removed := s.sched.Sync(tasks)
	s.log.Debug("session loaded", "tasks", len(tasks), "completions", len(hist), "tracked", len(added), "untracked", len(removed))
	return nil
}

func (s *Session) Now() time.Time { return s.clock.Now() }

func (s *Session) Logger() *slog.Logger { return s.log }

// Dir is the repository's data location, or "" when it has none to watch.
func (s *Session) Dir() string {
	if d, ok := s.repo.(interface{ Dir() string }); ok {
		return d.Dir()
	}
	return ""
}

// Tasks returns a copy of the task collection in display order.
func (s *Session) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// History returns a copy of the completion log, most recent first.
func (s *Session) History() model.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(model.History{}, s.hist...)
}

// Stats analyzes the current completion log.
func (s *Session) Stats() history.Stats {
	return history.Analyze(s.History())
}

// Remaining evaluates t against the session clock.
func (s *Session) Remaining(t model.Task) due.Remaining {
	return due.ForTask(t, s.clock.Now())
}

// CreateTask adds a task due one interval from now.
func (s *Session) CreateTask(ctx context.Context, title string, frequency int, unit model.TimeUnit) (model.Task, error) {
	title = strings.TrimSpace(title)
	if err := validate(title, frequency, unit); err != nil {
		return model.Task{}, err
	}
	t := model.Task{
		ID:            s.newID(),
		Title:         title,
		Frequency:     frequency,
		TimeUnit:      unit,
		LastCompleted: s.clock.Now().UnixMilli(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := append(s.cloneTasks(), t)
	if err := s.persist(ctx, tasks, nil); err != nil {
		return model.Task{}, err
	}
	s.sched.Track(t.ID)
	s.log.Info("task created", "id", t.ID, "task", t.Title, "every", model.FormatInterval(frequency, unit))
	return t, nil
}

// CompleteTask records a completion and restarts the task's countdown.
func (s *Session) CompleteTask(ctx context.Context, id string) (model.CompletionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.CompletionEvent{}, ErrTaskNotFound
	}
	now := s.clock.Now().UnixMilli()
	if now < s.tasks[i].LastCompleted {
		now = s.tasks[i].LastCompleted
	}
	ev := model.CompletionEvent{ID: id, Title: s.tasks[i].Title, Timestamp: now}

	hist := s.hist
	hist.Append(ev)
	tasks := s.cloneTasks()
	tasks[i].LastCompleted = now
	if err := s.persist(ctx, tasks, hist); err != nil {
		return model.CompletionEvent{}, err
	}
	s.sched.Reset(id)
	s.log.Info("task completed", "id", id, "task", ev.Title)
	return ev, nil
}

// DeleteTask removes a task and stops checking it. History keeps its
// completions.
func (s *Session) DeleteTask(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	t := s.tasks[i]
	tasks := make([]model.Task, 0, len(s.tasks)-1)
	tasks = append(tasks, s.tasks[:i]...)
	tasks = append(tasks, s.tasks[i+1:]...)
	if err := s.persist(ctx, tasks, nil); err != nil {
		return model.Task{}, err
	}
	s.sched.Untrack(id)
	s.log.Info("task deleted", "id", id, "task", t.Title)
	return t, nil
}

// RestoreTask puts back a deleted task at position at, keeping its id and
// last completion. Used for undo.
func (s *Session) RestoreTask(ctx context.Context, t model.Task, at int) error {
	if err := validate(t.Title, t.Frequency, t.TimeUnit); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(t.ID) >= 0 {
		return fmt.Errorf("restore %s: id already present", t.ID)
	}
	at = max(0, min(at, len(s.tasks)))
	tasks := make([]model.Task, 0, len(s.tasks)+1)
	tasks = append(tasks, s.tasks[:at]...)
	tasks = append(tasks, t)
	tasks = append(tasks, s.tasks[at:]...)
	if err := s.persist(ctx, tasks, nil); err != nil {
		return err
	}
	s.sched.Track(t.ID)
	return nil
}

// EditTask changes title and interval. LastCompleted is untouched.
func (s *Session) EditTask(ctx context.Context, id, title string, frequency int, unit model.TimeUnit) (model.Task, error) {
	title = strings.TrimSpace(title)
	if err := validate(title, frequency, unit); err != nil {
		return model.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return model.Task{}, ErrTaskNotFound
	}
	tasks := s.cloneTasks()
	tasks[i].Title = title
	tasks[i].Frequency = frequency
	tasks[i].TimeUnit = unit
	if err := s.persist(ctx, tasks, nil); err != nil {
		return model.Task{}, err
	}
	s.log.Info("task edited", "id", id, "task", title, "every", model.FormatInterval(frequency, unit))
	return tasks[i], nil
}

// ClearHistory empties the completion log. Tasks are not touched.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.hist)
	if err := s.persist(ctx, nil, model.History{}); err != nil {
		return err
	}
	s.log.Info("history cleared", "entries", n)
	return nil
}

// Tick runs one scheduler pass and returns the tasks that just became due.
func (s *Session) Tick(now time.Time) []scheduler.Due {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.Tick(now, s.tasks)
}

// Tracking reports whether the scheduler is checking id.
func (s *Session) Tracking(id string) bool { return s.sched.Tracking(id) }

// Find resolves a user reference: a 1-based index, a full id or a unique
// id prefix.
func (s *Session) Find(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(s.tasks) {
			return model.Task{}, fmt.Errorf("%w: index out of range: have %d, got %d", ErrTaskNotFound, len(s.tasks), n)
		}
		return s.tasks[n-1], nil
	}
	if i := s.index(ref); i >= 0 {
		return s.tasks[i], nil
	}
	var hit []model.Task
	if ref != "" {
		for _, t := range s.tasks {
			if strings.HasPrefix(t.ID, ref) {
				hit = append(hit, t)
			}
		}
	}
	switch len(hit) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return hit[0], nil
	}
	return model.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousTask, ref, len(hit))
}

// Snapshot returns both collections for export.
func (s *Session) Snapshot() store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Snapshot{
		ExportedAt:  s.clock.Now().UTC(),
		Tasks:       append([]model.Task(nil), s.tasks...),
		Completions: append(model.History{}, s.hist...),
	}
}

// Import replaces both collections with snap. Invalid tasks are skipped and
// reported in the returned count.
func (s *Session) Import(ctx context.Context, snap store.Snapshot) (skipped int, err error) {
	tasks := make([]model.Task, 0, len(snap.Tasks))
	seen := make(map[string]bool, len(snap.Tasks))
	for _, t := range snap.Tasks {
		t.Normalize()
		if t.ID == "" || seen[t.ID] || validate(t.Title, t.Frequency, t.TimeUnit) != nil {
			skipped++
			continue
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	hist := append(model.History{}, history.Recent(snap.Completions, model.HistoryCap)...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, tasks, hist); err != nil {
		return skipped, err
	}
	s.sched.Sync(tasks)
	s.log.Info("imported snapshot", "tasks", len(tasks), "completions", len(hist), "skipped", skipped)
	return skipped, nil
}

// persist writes the changed collections (nil means unchanged) and only then
// installs them in memory, so a failed save leaves the session as it was.
// When the task write fails after the history write succeeded, the stored
// history is put back.
func (s *Session) persist(ctx context.Context, tasks []model.Task, hist model.History) error {
	if hist != nil {
		if err := s.repo.SaveHistory(ctx, hist); err != nil {
			return err
		}
	}
	if tasks != nil {
		if err := s.repo.SaveTasks(ctx, tasks); err != nil {
			if hist != nil {
				if rerr := s.repo.SaveHistory(ctx, s.hist); rerr != nil {
					s.log.Error("restore history after failed task save", "err", rerr)
				}
			}
			return err
		}
		s.tasks = tasks
	}
	if hist != nil {
		s.hist = hist
	}
	return nil
}

func (s *Session) cloneTasks() []model.Task {
	return append(make([]model.Task, 0, len(s.tasks)+1), s.tasks...)
}

func (s *Session) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func validate(title string, frequency int, unit model.TimeUnit) error {
	if err := model.ValidateTask(title, frequency); err != nil {
		return err
	}
	if !unit.Valid() {
		return fmt.Errorf("%w %q", model.ErrBadUnit, unit)
	}
	return nil
}
