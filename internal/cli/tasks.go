package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/tui"
	"github.com/idilsaglam/recur/internal/ui"
)

const defaultEvery = "1d"

// intervalFlags is the shared --every / -f / -u trio of add and edit.
type intervalFlags struct {
	every     string
	frequency int
	unit      string
}

func (f *intervalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.every, "every", "e", "", "repeat interval, e.g. 30m, 2h, 1d")
	cmd.Flags().IntVarP(&f.frequency, "frequency", "f", 0, "repeat every N units")
	cmd.Flags().StringVarP(&f.unit, "unit", "u", "", "unit for --frequency: minute, hour or day")
}

func (f *intervalFlags) set() bool { return f.every != "" || f.frequency != 0 || f.unit != "" }

// resolve parses the flags, falling back to the given interval.
func (f *intervalFlags) resolve(freq int, unit model.TimeUnit) (int, model.TimeUnit, error) {
	if f.every != "" {
		if f.frequency != 0 || f.unit != "" {
			return 0, "", usagef("use either --every or --frequency/--unit")
		}
		return model.ParseInterval(f.every)
	}
	if f.frequency != 0 {
		freq = f.frequency
	}
	if f.unit != "" {
		u, err := model.ParseTimeUnit(f.unit)
		if err != nil {
			return 0, "", err
		}
		unit = u
	}
	if freq <= 0 {
		return 0, "", model.ErrBadFrequency
	}
	return freq, unit, nil
}

func (r *runner) newAddCmd() *cobra.Command {
	var iv intervalFlags
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a recurring task",
		Example: `  recur add "Water the plants" --every 2d
  recur add Stretch -f 45 -u minute`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: recur add <title...> [--every 30m|2h|1d]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !iv.set() {
				iv.every = defaultEvery
			}
			freq, unit, err := iv.resolve(0, model.Hour)
			if err != nil {
				return err
			}
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			t, err := sess.CreateTask(cmd.Context(), strings.Join(args, " "), freq, unit)
			if err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("added %q, every %s", t.Title, model.FormatInterval(t.Frequency, t.TimeUnit)))
			return nil
		},
	}
	iv.register(cmd)
	return cmd
}

func (r *runner) newListCmd() *cobra.Command {
	var plain, group bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks with their countdown (interactive on a terminal)",
		Args:    exactArgs(0, "ls [--plain] [--group]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			if !plain && !group && r.interactive() {
				// logs would corrupt the alt screen
				r.level.Set(slog.LevelError)
				return tui.Run(cmd.Context(), sess, tui.Options{
					Notifier: r.notifier(),
					Icon:     r.cfg.Notify.Icon,
					WatchDir: sess.Dir(),
					Tick:     r.cfg.Tick,
					Logger:   r.log,
				})
			}
			ui.Panel(listLines(sess.Tasks(), sess.Now(), group))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print a static list instead of the interactive view")
	cmd.Flags().BoolVar(&group, "group", false, "group the static list into overdue and upcoming")
	return cmd
}

func (r *runner) newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <ref>",
		Short: "Mark a task completed (ref: 1-based index or id prefix)",
		Args:  exactArgs(1, "done <index|id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			t, err := sess.Find(args[0])
			if err != nil {
				return err
			}
			if _, err := sess.CompleteTask(cmd.Context(), t.ID); err != nil {
				return err
			}
			t, _ = sess.Find(t.ID)
			ui.OK(fmt.Sprintf("completed %q, next due in %s", t.Title, sess.Remaining(t)))
			return nil
		},
	}
}

func (r *runner) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <ref>",
		Aliases: []string{"remove"},
		Short:   "Delete a task (its history is kept)",
		Args:    exactArgs(1, "rm <index|id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			t, err := sess.Find(args[0])
			if err != nil {
				return err
			}
			if _, err := sess.DeleteTask(cmd.Context(), t.ID); err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("removed %q", t.Title))
			return nil
		},
	}
}

func (r *runner) newEditCmd() *cobra.Command {
	var (
		title string
		iv    intervalFlags
	)
	cmd := &cobra.Command{
		Use:   "edit <ref>",
		Short: "Change a task's title or interval",
		Args:  exactArgs(1, "edit <index|id> [--title T] [--every 2h]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && !iv.set() {
				return usagef("edit: nothing to change (use --title or --every)")
			}
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			t, err := sess.Find(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = t.Title
			}
			freq, unit, err := iv.resolve(t.Frequency, t.TimeUnit)
			if err != nil {
				return err
			}
			t, err = sess.EditTask(cmd.Context(), t.ID, title, freq, unit)
			if err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("updated %q, every %s", t.Title, model.FormatInterval(t.Frequency, t.TimeUnit)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	iv.register(cmd)
	return cmd
}

// interactive reports whether stdout is a terminal we own.
func (r *runner) interactive() bool {
	f, ok := r.env.Stdout.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
