package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/recur/internal/due"
	"github.com/idilsaglam/recur/internal/history"
	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/store"
)

// memRepo records saves so tests can check write-through.
type memRepo struct {
	tasks     []model.Task
	hist      model.History
	taskSaves int
	histSaves int
	failSave  error
	failTasks error
}

func (r *memRepo) Load(context.Context) ([]model.Task, model.History, error) {
	return append([]model.Task(nil), r.tasks...), append(model.History(nil), r.hist...), nil
}

func (r *memRepo) SaveTasks(_ context.Context, t []model.Task) error {
	r.taskSaves++
	if r.failTasks != nil {
		return r.failTasks
	}
	r.tasks = append([]model.Task(nil), t...)
	return r.failSave
}

func (r *memRepo) SaveHistory(_ context.Context, h model.History) error {
	r.histSaves++
	r.hist = append(model.History(nil), h...)
	return r.failSave
}

var t0 = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

func newSession(t *testing.T, repo Repository) (*Session, *FakeClock) {
	t.Helper()
	clock := NewFakeClock(t0)
	n := 0
	s, err := Open(context.Background(), repo,
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	require.NoError(t, err)
	return s, clock
}

func TestCreateTask(t *testing.T) {
	repo := &memRepo{}
	s, _ := newSession(t, repo)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, "  Drink water ", 2, model.Hour)
	require.NoError(t, err)
	assert.Equal(t, "id-1", task.ID)
	assert.Equal(t, "Drink water", task.Title)
	assert.Equal(t, t0.UnixMilli(), task.LastCompleted)
	assert.True(t, s.Tracking(task.ID))
	assert.Equal(t, 1, repo.taskSaves)
	assert.Equal(t, []model.Task{task}, repo.tasks)
}

func TestCreateTaskRejectsInvalidInput(t *testing.T) {
	repo := &memRepo{}
	s, _ := newSession(t, repo)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, " ", 2, model.Hour)
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	_, err = s.CreateTask(ctx, "Walk", 0, model.Hour)
	assert.ErrorIs(t, err, model.ErrBadFrequency)
	_, err = s.CreateTask(ctx, "Walk", 1, model.TimeUnit("week"))
	assert.Error(t, err)

	assert.Empty(t, s.Tasks())
	assert.Zero(t, repo.taskSaves, "rejected input must not be persisted")
}

func TestOverdueThenComplete(t *testing.T) {
	s, clock := newSession(t, &memRepo{})
	ctx := context.Background()
	task, err := s.CreateTask(ctx, "Stretch", 30, model.Minute)
	require.NoError(t, err)

	clock.Advance(30*time.Minute + time.Millisecond)
	task, _ = s.Find(task.ID)
	assert.True(t, s.Remaining(task).Overdue)

	_, err = s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	task, _ = s.Find(task.ID)
	r := s.Remaining(task)
	assert.False(t, r.Overdue)
	assert.Equal(t, int64(30*60_000), r.Ms)
}

func TestCompleteTaskAppendsSnapshotToHistory(t *testing.T) {
	repo := &memRepo{}
	s, clock := newSession(t, repo)
	ctx := context.Background()
	task, _ := s.CreateTask(ctx, "Feed cat", 12, model.Hour)

	clock.Advance(time.Hour)
	ev, err := s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CompletionEvent{ID: task.ID, Title: "Feed cat", Timestamp: t0.Add(time.Hour).UnixMilli()}, ev)

	_, err = s.EditTask(ctx, task.ID, "Feed both cats", 12, model.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Feed cat", s.History()[0].Title, "title is a snapshot")
	assert.Equal(t, 1, repo.histSaves)
	assert.Len(t, repo.hist, 1)

	_, err = s.CompleteTask(ctx, "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCompletionRearmsTrigger(t *testing.T) {
	s, clock := newSession(t, &memRepo{})
	ctx := context.Background()
	task, _ := s.CreateTask(ctx, "Water plants", 1, model.Hour)

	clock.Advance(time.Hour)
	fired := s.Tick(clock.Now())
	require.Len(t, fired, 1)
	assert.Equal(t, task.ID, fired[0].Task.ID)
	assert.Empty(t, s.Tick(clock.Now().Add(time.Second)))

	_, err := s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	assert.Len(t, s.Tick(clock.Now()), 1)
}

func TestDeleteTaskUntracksAndKeepsHistory(t *testing.T) {
	s, clock := newSession(t, &memRepo{})
	ctx := context.Background()
	task, _ := s.CreateTask(ctx, "Read", 1, model.Day)
	_, _ = s.CompleteTask(ctx, task.ID)

	deleted, err := s.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)
	assert.False(t, s.Tracking(task.ID))
	assert.Empty(t, s.Tasks())
	assert.Len(t, s.History(), 1)

	clock.Advance(48 * time.Hour)
	assert.Empty(t, s.Tick(clock.Now()))

	_, err = s.DeleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, s.RestoreTask(ctx, deleted, 0))
	assert.True(t, s.Tracking(task.ID))
	assert.Len(t, s.Tasks(), 1)
}

func TestEditTask(t *testing.T) {
	s, clock := newSession(t, &memRepo{})
	ctx := context.Background()
	task, _ := s.CreateTask(ctx, "Read", 1, model.Day)
	clock.Advance(time.Hour)

	edited, err := s.EditTask(ctx, task.ID, "Read a chapter", 3, model.Hour)
	require.NoError(t, err)
	assert.Equal(t, task.LastCompleted, edited.LastCompleted)
	assert.Equal(t, 3, edited.Frequency)
	assert.Equal(t, model.Hour, edited.TimeUnit)
	assert.Equal(t, 2*time.Hour, s.Remaining(edited).Duration())

	_, err = s.EditTask(ctx, task.ID, "", 3, model.Hour)
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	got, _ := s.Find(task.ID)
	assert.Equal(t, "Read a chapter", got.Title)
}

func TestClearHistoryKeepsTasks(t *testing.T) {
	s, clock := newSession(t, &memRepo{})
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		task, _ := s.CreateTask(ctx, fmt.Sprintf("Task %d", i), 1, model.Minute)
		clock.Advance(time.Minute)
		_, _ = s.CompleteTask(ctx, task.ID)
	}
	st := s.Stats()
	require.Equal(t, 6, st.TotalCompleted)
	require.Equal(t, 6, st.UniqueTaskCount)

	require.NoError(t, s.ClearHistory(ctx))
	st = s.Stats()
	assert.Zero(t, st.TotalCompleted)
	assert.Zero(t, st.UniqueTaskCount)
	assert.Zero(t, st.CurrentStreak)
	assert.Zero(t, st.BestStreak)
	assert.Zero(t, st.Unlocked())
	assert.Len(t, s.Tasks(), 6)
}

func TestHistoryCapThroughSession(t *testing.T) {
	s, clock := newSession(t, &memRepo{})
	ctx := context.Background()
	task, _ := s.CreateTask(ctx, "Blink", 1, model.Minute)
	for i := 0; i < 120; i++ {
		clock.Advance(time.Second)
		_, _ = s.CompleteTask(ctx, task.ID)
	}
	assert.Len(t, s.History(), model.HistoryCap)
	a, _ := s.Stats().Find(history.DisciplineMaster)
	assert.True(t, a.Unlocked)
}

func TestFind(t *testing.T) {
	s, _ := newSession(t, &memRepo{})
	ctx := context.Background()
	a, _ := s.CreateTask(ctx, "A", 1, model.Hour)
	b, _ := s.CreateTask(ctx, "B", 1, model.Hour)

	got, err := s.Find("2")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	got, err = s.Find(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = s.Find("id-")
	assert.ErrorIs(t, err, ErrAmbiguousTask)
	_, err = s.Find("7")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.Find("zzz")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSaveErrorsSurface(t *testing.T) {
	boom := errors.New("disk full")
	s, _ := newSession(t, &memRepo{failSave: boom})
	_, err := s.CreateTask(context.Background(), "A", 1, model.Hour)
	assert.ErrorIs(t, err, boom)
}

func TestFailedSaveLeavesSessionUnchanged(t *testing.T) {
	boom := errors.New("disk full")
	repo := &memRepo{}
	s, clock := newSession(t, repo)
	ctx := context.Background()
	task, err := s.CreateTask(ctx, "Walk dog", 4, model.Hour)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	repo.failSave = boom
	_, err = s.CreateTask(ctx, "Feed fish", 1, model.Day)
	assert.ErrorIs(t, err, boom)
	_, err = s.CompleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, boom)
	_, err = s.EditTask(ctx, task.ID, "Walk both dogs", 2, model.Hour)
	assert.ErrorIs(t, err, boom)
	_, err = s.DeleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []model.Task{task}, s.Tasks())
	assert.Empty(t, s.History())
	assert.True(t, s.Tracking(task.ID))
	assert.Equal(t, 3*time.Hour, s.Remaining(task).Duration())
}

func TestCompleteTaskKeepsLogAndTaskInStep(t *testing.T) {
	repo := &memRepo{}
	s, clock := newSession(t, repo)
	ctx := context.Background()
	task, err := s.CreateTask(ctx, "Walk dog", 4, model.Hour)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	repo.failTasks = errors.New("read-only")
	_, err = s.CompleteTask(ctx, task.ID)
	require.Error(t, err)

	assert.Empty(t, s.History())
	assert.Empty(t, repo.hist, "stored history is put back")
	got, _ := s.Find(task.ID)
	assert.Equal(t, task.LastCompleted, got.LastCompleted)

	repo.failTasks = nil
	_, err = s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, s.History(), 1)
	assert.Len(t, repo.hist, 1)
	assert.Equal(t, clock.Now().UnixMilli(), repo.tasks[0].LastCompleted)
}

func TestPersistsAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := store.Open(store.BackendJSON, dir, nil)
	require.NoError(t, err)
	s, clock := newSession(t, repo)
	task, _ := s.CreateTask(ctx, "Journal", 1, model.Day)
	clock.Advance(time.Hour)
	_, _ = s.CompleteTask(ctx, task.ID)

	repo2, err := store.Open(store.BackendJSON, dir, nil)
	require.NoError(t, err)
	s2, _ := newSession(t, repo2)
	assert.Equal(t, s.Tasks(), s2.Tasks())
	assert.Equal(t, s.History(), s2.History())
	assert.True(t, s2.Tracking(task.ID))
	assert.Equal(t, due.Remaining{Ms: 25 * 3_600_000}, s2.Remaining(s2.Tasks()[0]))
}

func TestImportSnapshot(t *testing.T) {
	s, _ := newSession(t, &memRepo{})
	snap := store.Snapshot{
		Tasks: []model.Task{
			{ID: "x", Title: "Ok", Frequency: 1, TimeUnit: model.Day},
			{ID: "x", Title: "Duplicate", Frequency: 1, TimeUnit: model.Day},
			{ID: "y", Title: "", Frequency: 1, TimeUnit: model.Day},
			{ID: "z", Title: "Legacy", Frequency: 8},
		},
	}
	for i := 0; i < 150; i++ {
		snap.Completions = append(snap.Completions, model.CompletionEvent{ID: "x", Timestamp: int64(i)})
	}

	skipped, err := s.Import(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, s.Tasks(), 2)
	assert.Equal(t, model.Hour, s.Tasks()[1].TimeUnit)
	assert.Len(t, s.History(), model.HistoryCap)
	assert.Equal(t, int64(149), s.History()[0].Timestamp)
	assert.True(t, s.Tracking("z"))
}
