package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/recur/internal/history"
	"github.com/idilsaglam/recur/internal/ui"
)

func (m Model) statsView() string {
	t := ui.Current()
	st := m.sess.Stats()

	var b strings.Builder
	b.WriteString(t.Title.Render("Stats") + "\n\n")
	fmt.Fprintf(&b, "%s %d   %s %d\n",
		t.Accent.Render("Completed"), st.TotalCompleted,
		t.Accent.Render("Tasks"), st.UniqueTaskCount)
	fmt.Fprintf(&b, "%s %s   %s %s\n\n",
		t.Accent.Render("Current streak"), st.CurrentStreakLabel(),
		t.Accent.Render("Best"), st.BestStreakLabel())

	b.WriteString(t.Title.Render("Achievements") + "\n")
	for _, a := range st.Achievements {
		sym, style := t.SymLocked, t.Muted
		if a.Unlocked {
			sym, style = t.SymTrophy, t.Success
		}
		fmt.Fprintf(&b, "%s %s  %s\n", style.Render(sym), style.Render(a.Name), t.Faint.Render(a.Description))
		fmt.Fprintf(&b, "    %s\n", ui.ProgressBar(a.Progress, a.Goal, 20))
	}
	b.WriteString("\n" + t.Faint.Render("esc back • h history • q quit"))
	return b.String()
}

func (m Model) historyView() string {
	t := ui.Current()
	events := m.sess.History()

	var b strings.Builder
	b.WriteString(t.Title.Render("History") + "\n\n")
	if len(events) == 0 {
		b.WriteString(t.Muted.Render("No completions yet") + "\n")
	}
	shown := 0
	for _, day := range history.GroupByDay(events, time.Local) {
		if shown >= m.historyRows() {
			break
		}
		b.WriteString(t.Accent.Render(day.Date.Format("Monday 02 January")) + "\n")
		for _, e := range day.Events {
			if shown >= m.historyRows() {
				break
			}
			fmt.Fprintf(&b, "  %s %s  %s\n", t.Success.Render(t.SymOK), e.Title, t.Faint.Render(history.FormatEventTime(e, time.Local)))
			shown++
		}
	}
	if len(events) > shown {
		b.WriteString(t.Faint.Render(fmt.Sprintf("… %d more", len(events)-shown)) + "\n")
	}
	b.WriteString("\n" + t.Faint.Render("esc back • s stats • X clear history • q quit"))
	return b.String()
}

// historyRows is how many entries fit beside headers and help.
func (m Model) historyRows() int {
	if m.height <= 0 {
		return 20
	}
	return max(5, m.height/2)
}
