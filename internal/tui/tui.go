// Package tui is the interactive task list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/recur/internal/app"
	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/notify"
	"github.com/idilsaglam/recur/internal/scheduler"
	"github.com/idilsaglam/recur/internal/store"
	"github.com/idilsaglam/recur/internal/ui"
)

const defaultEvery = "1d"

type Options struct {
	Notifier notify.Notifier
	Icon     string
	// WatchDir enables reloading when another process changes the data.
	WatchDir string
	Tick     time.Duration
	Logger   *slog.Logger
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeStats
	modeHistory
	modeConfirmClear
)

type (
	tickMsg     time.Time
	reloadMsg   struct{}
	notifiedMsg struct {
		title string
		err   error
	}
)

// undo holds the last deleted task (single level).
type undo struct {
	task  model.Task
	index int
}

// Model is the bubbletea model for the task list.
type Model struct {
	ctx  context.Context
	sess *app.Session
	opts Options

	list   list.Model
	mode   mode
	prev   mode
	width  int
	height int

	// add/edit form
	title  textinput.Model
	every  textinput.Model
	focus  int
	editID string
	err    string

	status  string
	undo    *undo
	changes <-chan struct{}
}

// Run shows the list until the user quits or ctx is done.
func Run(ctx context.Context, sess *app.Session, opts Options) error {
	m := New(ctx, sess, opts)
	if opts.WatchDir != "" {
		ch, err := store.Watch(ctx, opts.WatchDir)
		if err != nil {
			m.opts.Logger.Warn("live reload disabled", "path", opts.WatchDir, "err", err)
		} else {
			m.changes = ch
		}
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func New(ctx context.Context, sess *app.Session, opts Options) Model {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Icon == "" {
		opts.Icon = notify.DefaultIcon
	}
	if opts.Tick <= 0 {
		opts.Tick = scheduler.DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	t := ui.Current()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Tasks"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Faint
	l.Styles.PaginationStyle = t.Faint
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "done")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings[:3] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	title := textinput.New()
	title.Prompt = "Title > "
	title.Placeholder = "Water the plants"
	title.CharLimit = 200

	every := textinput.New()
	every.Prompt = "Every > "
	every.Placeholder = "30m, 2h, 1d"
	every.CharLimit = 12

	m := Model{ctx: ctx, sess: sess, opts: opts, list: l, title: title, every: every}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForChange())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return reloadMsg{}
	}
}

func (m Model) notify(task model.Task) tea.Cmd {
	n, icon, ctx := m.opts.Notifier, m.opts.Icon, m.ctx
	return func() tea.Msg {
		err := n.Notify(ctx, notify.DueMessage(task.Title, icon))
		return notifiedMsg{title: task.Title, err: err}
	}
}

// refresh rebuilds list items from the session, keeping the cursor.
func (m *Model) refresh() {
	now := m.sess.Now()
	tasks := m.sess.Tasks()
	items := make([]list.Item, 0, len(tasks))
	overdue := 0
	for _, t := range tasks {
		it := taskItem{task: t, rem: m.sess.Remaining(t)}
		if it.rem.Overdue {
			overdue++
		}
		items = append(items, it)
	}
	idx := m.list.Index()
	if cmd := m.list.SetItems(items); cmd != nil {
		// re-apply an active filter now rather than on a later message
		m.list, _ = m.list.Update(cmd())
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	th := ui.Current()
	m.list.Title = fmt.Sprintf("Tasks   %s %d  %s %d  %s",
		th.Error.Render(th.SymOverdue), overdue,
		th.Pending.Render(th.SymDue), len(tasks)-overdue,
		th.Faint.Render(now.Format("15:04:05")))
}

// selected returns the highlighted task and its position in the full task
// collection, which differs from the list index while a filter is applied.
func (m Model) selected() (model.Task, int, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	if !ok {
		return model.Task{}, -1, false
	}
	for i, t := range m.sess.Tasks() {
		if t.ID == it.task.ID {
			return it.task, i, true
		}
	}
	return model.Task{}, -1, false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		for _, d := range m.sess.Tick(m.sess.Now()) {
			m.opts.Logger.Info("task due", "id", d.Task.ID, "task", d.Task.Title)
			cmds = append(cmds, m.notify(d.Task))
		}
		m.refresh()
		cmds = append(cmds, m.tick())
		return m, tea.Batch(cmds...)

	case reloadMsg:
		if err := m.sess.Reload(m.ctx); err != nil {
			m.status = "reload failed: " + err.Error()
		}
		m.refresh()
		return m, m.waitForChange()

	case notifiedMsg:
		if msg.err != nil {
			m.opts.Logger.Warn("notification failed", "task", msg.title, "err", msg.err)
			m.status = "notification failed: " + msg.err.Error()
		} else {
			m.status = "Reminder: " + msg.title
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeStats, modeHistory:
			return m.updatePane(msg)
		case modeConfirmClear:
			return m.updateConfirm(msg)
		}
		if m.list.FilterState() != list.Filtering {
			if next, cmd, handled := m.updateListKey(msg); handled {
				return next, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q", "esc":
		if m.list.FilterState() == list.FilterApplied {
			return m, nil, false
		}
		return m, tea.Quit, true
	case " ", "enter":
		if t, _, ok := m.selected(); ok {
			if _, err := m.sess.CompleteTask(m.ctx, t.ID); err != nil {
				m.status = "complete failed: " + err.Error()
			} else {
				m.status = "Completed: " + t.Title
			}
			m.refresh()
		}
		return m, nil, true
	case "d":
		if t, i, ok := m.selected(); ok {
			if _, err := m.sess.DeleteTask(m.ctx, t.ID); err != nil {
				m.status = "delete failed: " + err.Error()
			} else {
				m.undo = &undo{task: t, index: i}
				m.status = "Deleted: " + t.Title + " (u to undo)"
			}
			m.refresh()
		}
		return m, nil, true
	case "u":
		if m.undo != nil {
			if err := m.sess.RestoreTask(m.ctx, m.undo.task, m.undo.index); err != nil {
				m.status = "undo failed: " + err.Error()
			} else {
				m.status = "Restored: " + m.undo.task.Title
				m.refresh()
				if m.list.FilterState() == list.Unfiltered {
					m.list.Select(m.undo.index)
				}
			}
			m.undo = nil
		}
		return m, nil, true
	case "a":
		return m.openForm(modeAdd, model.Task{}), textinput.Blink, true
	case "e":
		if t, _, ok := m.selected(); ok {
			return m.openForm(modeEdit, t), textinput.Blink, true
		}
		return m, nil, true
	case "s":
		m.prev, m.mode = modeList, modeStats
		return m, nil, true
	case "h":
		m.prev, m.mode = modeList, modeHistory
		return m, nil, true
	case "X":
		m.prev, m.mode = modeList, modeConfirmClear
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) openForm(md mode, t model.Task) Model {
	m.mode = md
	m.err = ""
	m.focus = 0
	m.editID = t.ID
	if md == modeEdit {
		m.title.SetValue(t.Title)
		m.every.SetValue(model.FormatInterval(t.Frequency, t.TimeUnit))
	} else {
		m.title.SetValue("")
		m.every.SetValue(defaultEvery)
	}
	m.title.CursorEnd()
	m.every.CursorEnd()
	m.title.Focus()
	m.every.Blur()
	return m
}

func (m Model) closeForm() Model {
	m.mode = modeList
	m.err = ""
	m.editID = ""
	m.title.Blur()
	m.every.Blur()
	return m
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeForm(), nil
	case "tab", "shift+tab", "up", "down":
		m.focus = 1 - m.focus
		if m.focus == 0 {
			m.every.Blur()
			m.title.Focus()
		} else {
			m.title.Blur()
			m.every.Focus()
		}
		return m, nil
	case "enter":
		return m.submitForm(), nil
	}
	var cmd tea.Cmd
	if m.focus == 0 {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.every, cmd = m.every.Update(msg)
	}
	return m, cmd
}

func (m Model) submitForm() Model {
	title := strings.TrimSpace(m.title.Value())
	if title == "" {
		m.err = "Title cannot be empty"
		return m
	}
	freq, unit, err := model.ParseInterval(m.every.Value())
	if err != nil {
		m.err = err.Error()
		return m
	}
	adding := m.mode == modeAdd
	if adding {
		_, err = m.sess.CreateTask(m.ctx, title, freq, unit)
	} else {
		_, err = m.sess.EditTask(m.ctx, m.editID, title, freq, unit)
	}
	if err != nil {
		m.err = err.Error()
		return m
	}
	m = m.closeForm()
	m.refresh()
	if adding {
		m.status = "Added: " + title
		m.list.Select(len(m.list.Items()) - 1)
	} else {
		m.status = "Updated: " + title
	}
	return m
}

func (m Model) updatePane(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.mode = modeList
	case "s":
		m.mode = modeStats
	case "h":
		m.mode = modeHistory
	case "X":
		m.prev, m.mode = m.mode, modeConfirmClear
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := m.sess.ClearHistory(m.ctx); err != nil {
			m.status = "clear failed: " + err.Error()
		} else {
			m.status = "History cleared"
		}
	default:
		m.status = "Kept history"
	}
	m.mode = m.prev
	return m, nil
}

func (m Model) View() string {
	t := ui.Current()
	var content string
	switch m.mode {
	case modeStats:
		content = m.statsView()
	case modeHistory:
		content = m.historyView()
	default:
		content = m.list.View()
	}

	switch m.mode {
	case modeAdd, modeEdit:
		heading := "Add task"
		if m.mode == modeEdit {
			heading = "Edit task"
		}
		if m.err != "" {
			heading += "  " + t.Error.Render(m.err)
		}
		box := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		form := heading + "\n" + m.title.View() + "\n" + m.every.View() + "\n" +
			t.Faint.Render("tab switch field • enter save • esc cancel")
		content += "\n" + box.Render(form)
	case modeConfirmClear:
		content += "\n" + t.Error.Render("Clear all history? This cannot be undone. (y/N)")
	}
	if m.status != "" {
		content += "\n" + t.Muted.Render(m.status)
	}
	return ui.PanelString([]string{content})
}
