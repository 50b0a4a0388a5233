package history

// Achievement ids.
const (
	FirstSteps       = "first_steps"
	OnARoll          = "on_a_roll"
	DisciplineMaster = "discipline_master"
	Multitasking     = "multitasking"
)

const (
	rollGoal       = 3
	disciplineGoal = 50
	multitaskGoal  = 5
)

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress"`
	Goal        int    `json:"goal"`
}

// evaluate recomputes every achievement from st. Nothing is remembered
// between calls, so an unlock holds exactly as long as its predicate does.
func evaluate(st Stats) []Achievement {
	roll := "Keep a 3 day streak"
	if st.IsShortInterval {
		roll = "Complete tasks 3 times in a row"
	}
	return []Achievement{
		progress(Achievement{ID: FirstSteps, Name: "First Steps", Description: "Complete your first task", Icon: "🎯"}, st.TotalCompleted, 1),
		progress(Achievement{ID: OnARoll, Name: "On a Roll", Description: roll, Icon: "🔥"}, st.BestStreak, rollGoal),
		progress(Achievement{ID: DisciplineMaster, Name: "Discipline Master", Description: "Complete 50 tasks", Icon: "🏆"}, st.TotalCompleted, disciplineGoal),
		progress(Achievement{ID: Multitasking, Name: "Multitasking", Description: "Complete 5 different tasks", Icon: "🧩"}, st.UniqueTaskCount, multitaskGoal),
	}
}

func progress(a Achievement, have, goal int) Achievement {
	a.Goal = goal
	a.Progress = min(have, goal)
	a.Unlocked = have >= goal
	return a
}

// Find returns the achievement with id, if present.
func (s Stats) Find(id string) (Achievement, bool) {
	for _, a := range s.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Unlocked counts unlocked achievements.
func (s Stats) Unlocked() int {
	n := 0
	for _, a := range s.Achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}
