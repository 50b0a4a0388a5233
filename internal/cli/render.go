package cli

import (
	"fmt"
	"time"

	"github.com/idilsaglam/recur/internal/due"
	"github.com/idilsaglam/recur/internal/history"
	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/ui"
)

func listLines(tasks []model.Task, now time.Time, group bool) []string {
	t := ui.Current()
	overdue := 0
	for _, task := range tasks {
		if due.ForTask(task, now).Overdue {
			overdue++
		}
	}
	onTime := len(tasks) - overdue

	lines := []string{
		fmt.Sprintf("%s  %s %d  %s %d  %s %d",
			t.Title.Render("Tasks"),
			t.Error.Render(t.SymOverdue), overdue,
			t.Pending.Render(t.SymDue), onTime,
			t.Accent.Render("Total"), len(tasks)),
		t.Muted.Render(ui.ProgressBar(onTime, len(tasks), 28)),
		"",
	}
	if group {
		lines = append(lines, groupLines(tasks, now)...)
	} else {
		lines = append(lines, flatLines(tasks, now, nil)...)
	}
	lines = append(lines, "", t.Muted.Render("Tip: add with `recur add \"Stretch\" --every 45m`"))
	return lines
}

// flatLines renders tasks with their 1-based position. A non-nil keep
// filters which tasks are shown; positions stay those of the full list.
func flatLines(tasks []model.Task, now time.Time, keep func(due.Remaining) bool) []string {
	t := ui.Current()
	if len(tasks) == 0 {
		return []string{t.Muted.Render("no tasks")}
	}
	var out []string
	for i, task := range tasks {
		rem := due.ForTask(task, now)
		if keep != nil && !keep(rem) {
			continue
		}
		marker, countdown := t.Pending.Render(t.SymDue), rem.String()
		if rem.Overdue {
			marker, countdown = t.Error.Render(t.SymOverdue), t.Error.Render(due.OverdueLabel)
		}
		title := ui.Truncate(task.Title, 60)
		out = append(out, fmt.Sprintf("%s %s %s  %s  %s",
			t.Faint.Render(fmt.Sprintf("%2d.", i+1)),
			marker, title,
			t.Muted.Render("every "+model.FormatInterval(task.Frequency, task.TimeUnit)),
			countdown))
	}
	if len(out) == 0 {
		return []string{t.Muted.Render("(none)")}
	}
	return out
}

func groupLines(tasks []model.Task, now time.Time) []string {
	t := ui.Current()
	lines := []string{t.Accent.Render("Overdue")}
	lines = append(lines, flatLines(tasks, now, func(r due.Remaining) bool { return r.Overdue })...)
	lines = append(lines, "", t.Accent.Render("Upcoming"))
	lines = append(lines, flatLines(tasks, now, func(r due.Remaining) bool { return !r.Overdue })...)
	return lines
}

func statsLines(st history.Stats) []string {
	t := ui.Current()
	mode := "daily"
	if st.IsShortInterval {
		mode = "short interval"
	}
	lines := []string{
		t.Title.Render("Stats"),
		fmt.Sprintf("%s %d   %s %d", t.Accent.Render("Completed"), st.TotalCompleted, t.Accent.Render("Tasks"), st.UniqueTaskCount),
		fmt.Sprintf("%s %s   %s %s   %s",
			t.Accent.Render("Current streak"), st.CurrentStreakLabel(),
			t.Accent.Render("Best"), st.BestStreakLabel(),
			t.Muted.Render("("+mode+")")),
		"",
		t.Title.Render(fmt.Sprintf("Achievements %d/%d", st.Unlocked(), len(st.Achievements))),
	}
	for _, a := range st.Achievements {
		sym, style := t.SymLocked, t.Muted
		if a.Unlocked {
			sym, style = t.SymTrophy, t.Success
		}
		lines = append(lines,
			fmt.Sprintf("%s %s  %s", style.Render(sym), style.Render(a.Name), t.Faint.Render(a.Description)),
			"   "+ui.ProgressBar(a.Progress, a.Goal, 20))
	}
	return lines
}

func historyLines(events []model.CompletionEvent, n int, loc *time.Location) []string {
	t := ui.Current()
	lines := []string{t.Title.Render(fmt.Sprintf("History (%d)", len(events)))}
	if len(events) == 0 {
		return append(lines, t.Muted.Render("no completions yet"))
	}
	for _, day := range history.GroupByDay(history.Recent(events, n), loc) {
		lines = append(lines, t.Accent.Render(day.Date.Format("Monday 02 January 2006")))
		for _, e := range day.Events {
			lines = append(lines, fmt.Sprintf("  %s %s  %s",
				t.Success.Render(t.SymOK), e.Title, t.Faint.Render(history.FormatEventTime(e, loc))))
		}
	}
	if n > 0 && len(events) > n {
		lines = append(lines, t.Faint.Render(fmt.Sprintf("… %d older", len(events)-n)))
	}
	return lines
}
