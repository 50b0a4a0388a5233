// Package cli wires the recur commands. Exit codes: 0 ok, 1 runtime error,
// 2 usage error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/recur/internal/app"
	"github.com/idilsaglam/recur/internal/config"
	"github.com/idilsaglam/recur/internal/model"
	"github.com/idilsaglam/recur/internal/notify"
	"github.com/idilsaglam/recur/internal/store"
	"github.com/idilsaglam/recur/internal/ui"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Env is the process surroundings a command runs in. Zero fields fall back
// to the real terminal, clock and desktop notifier.
type Env struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Clock    app.Clock
	Notifier notify.Notifier
}

// usageError marks errors caused by bad input rather than a failed operation.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

type rootFlags struct {
	configPath string
	dataDir    string
	backend    string
	theme      string
	verbose    bool
}

// runner carries state shared by every command of one invocation.
type runner struct {
	env   Env
	flags rootFlags
	level slog.LevelVar
	cfg   *config.Config
	log   *slog.Logger
	repo  *store.Repository
	sess  *app.Session
}

// Execute runs recur with os.Args-style arguments and returns the exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, args, Env{})
}

// Run is Execute with explicit context and environment.
func Run(ctx context.Context, args []string, env Env) int {
	if env.Stdin == nil {
		env.Stdin = os.Stdin
	}
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.Clock == nil {
		env.Clock = app.RealClock{}
	}
	ui.SetOutput(env.Stdout, env.Stderr)

	r := &runner{env: env}
	defer r.close()

	root := r.newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	ui.Fail(err.Error())
	code := exitCode(err)
	if errors.Is(err, app.ErrTaskNotFound) {
		ui.Hint("Hint: run `recur ls --plain` to see valid indexes")
	}
	if code == ExitUsage && isCobraUsage(err) {
		fmt.Fprintln(env.Stderr)
		fmt.Fprintln(env.Stderr, root.UsageString())
	}
	return code
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, model.ErrEmptyTitle),
		errors.Is(err, model.ErrBadFrequency),
		errors.Is(err, model.ErrBadUnit),
		errors.Is(err, model.ErrBadInterval),
		errors.Is(err, app.ErrTaskNotFound),
		errors.Is(err, app.ErrAmbiguousTask),
		errors.Is(err, store.ErrUnknownBackend),
		isCobraUsage(err):
		return ExitUsage
	}
	return ExitError
}

// isCobraUsage recognises cobra's own parse errors, which are not typed.
func isCobraUsage(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.HasPrefix(msg, "invalid argument") ||
		strings.Contains(msg, "flag needs an argument")
}

func (r *runner) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recur",
		Short: "recur - recurring task reminders",
		Long: `recur tracks tasks that repeat on a fixed interval, counts down to the
next due time and reminds you when a task is overdue. Completions are kept
as history for streaks and achievements.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usagef("missing subcommand")
		},
	}
	root.SetIn(r.env.Stdin)
	root.SetOut(r.env.Stdout)
	root.SetErr(r.env.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.configPath, "config", "", "config file (default "+config.Path()+")")
	pf.StringVar(&r.flags.dataDir, "data-dir", "", "directory holding tasks and history")
	pf.StringVar(&r.flags.backend, "backend", "", "storage backend: json or sqlite")
	pf.StringVar(&r.flags.theme, "theme", "", "color theme: classic, neon or mono")
	pf.BoolVarP(&r.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		r.newAddCmd(),
		r.newListCmd(),
		r.newDoneCmd(),
		r.newRemoveCmd(),
		r.newEditCmd(),
		r.newHistoryCmd(),
		r.newStatsCmd(),
		r.newClearHistoryCmd(),
		r.newWatchCmd(),
		r.newServeCmd(),
		r.newExportCmd(),
		r.newImportCmd(),
	)
	return root
}

// setup loads configuration and logging. Storage is opened lazily by the
// commands that need it.
func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(r.flags.configPath)
	if err != nil {
		return err
	}
	if r.flags.dataDir != "" {
		cfg.DataDir = config.ExpandHome(r.flags.dataDir)
	}
	if r.flags.backend != "" {
		cfg.Backend = r.flags.backend
	}
	if r.flags.theme != "" {
		cfg.Theme = r.flags.theme
	}
	r.cfg = cfg
	ui.SetTheme(cfg.Theme)

	r.level.Set(slog.LevelInfo)
	if r.flags.verbose {
		r.level.Set(slog.LevelDebug)
	}
	r.log = slog.New(slog.NewTextHandler(r.env.Stderr, &slog.HandlerOptions{Level: &r.level}))
	slog.SetDefault(r.log)
	r.log.Debug("config loaded", "path", cfg.DataDir, "backend", cfg.Backend)
	return nil
}

// session opens storage and the session on first use.
func (r *runner) session(ctx context.Context) (*app.Session, error) {
	if r.sess != nil {
		return r.sess, nil
	}
	repo, err := store.Open(r.cfg.Backend, r.cfg.DataDir, r.log)
	if err != nil {
		return nil, err
	}
	sess, err := app.Open(ctx, repo, app.WithClock(r.env.Clock), app.WithLogger(r.log))
	if err != nil {
		repo.Close()
		return nil, err
	}
	r.repo, r.sess = repo, sess
	return sess, nil
}

func (r *runner) notifier() notify.Notifier {
	if r.env.Notifier != nil {
		return r.env.Notifier
	}
	logged := notify.Log{Logger: r.log}
	if !r.cfg.Notify.Enabled {
		return logged
	}
	return notify.Multi{logged, notify.NewDesktop(r.cfg.Notify.Bell)}
}

func (r *runner) close() {
	if r.repo != nil {
		if err := r.repo.Close(); err != nil && r.log != nil {
			r.log.Warn("close store", "err", err)
		}
	}
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: recur %s", usage)
		}
		return nil
	}
}
