package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/recur/internal/ui"
)

func (r *runner) newHistoryCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent completions grouped by day",
		Args:  exactArgs(0, "history [-n N]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 0 {
				return usagef("history: -n must not be negative")
			}
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			ui.Panel(historyLines(sess.History(), n, time.Local))
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of entries to show (0 for all)")
	return cmd
}

func (r *runner) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, streaks and achievements",
		Args:  exactArgs(0, "stats"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			ui.Panel(statsLines(sess.Stats()))
			return nil
		},
	}
}

func (r *runner) newClearHistoryCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-history",
		Short: "Delete every recorded completion (tasks are kept)",
		Args:  exactArgs(0, "clear-history [--yes]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			n := len(sess.History())
			if n == 0 {
				ui.OK("history already empty")
				return nil
			}
			if !yes && !r.confirm(fmt.Sprintf("Clear %d completions? This cannot be undone. [y/N] ", n)) {
				ui.OK("kept history")
				return nil
			}
			if err := sess.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			ui.OK(fmt.Sprintf("cleared %d completions", n))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (r *runner) confirm(prompt string) bool {
	fmt.Fprint(r.env.Stdout, prompt)
	line, _ := bufio.NewReader(r.env.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
