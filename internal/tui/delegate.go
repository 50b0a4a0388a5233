package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/recur/internal/due"
	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/ui"
)

// taskItem adapts a task and its countdown to bubbles/list.Item.
type taskItem struct {
	task model.Task
	rem  due.Remaining
}

func (i taskItem) Title() string       { return i.task.Title }
func (i taskItem) Description() string { return i.rem.String() }
func (i taskItem) FilterValue() string { return i.task.Title }

// itemDelegate renders one task per line: marker, title, interval, countdown.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	t := ui.Current()

	marker := t.Pending.Render(t.SymDue)
	countdown := t.Muted.Render(it.rem.String())
	if it.rem.Overdue {
		marker = t.Error.Render(t.SymOverdue)
		countdown = t.Error.Render(due.OverdueLabel)
	}
	every := t.Faint.Render("every " + model.FormatInterval(it.task.Frequency, it.task.TimeUnit))

	title := ui.Truncate(it.task.Title, 48)
	left := fmt.Sprintf("%s %s  %s", marker, title, every)

	width := m.Width() - 4
	gap := width - lipgloss.Width(left) - lipgloss.Width(countdown)
	if gap < 2 {
		gap = 2
	}
	line := left + strings.Repeat(" ", gap) + countdown

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintln(w, prefix+line)
}
