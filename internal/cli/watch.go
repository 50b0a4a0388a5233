package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/recur/internal/app"
	"github.com/idilsaglam/recur/internal/notify"
	"github.com/idilsaglam/recur/internal/scheduler"
	"github.com/idilsaglam/recur/internal/server"
	"github.com/idilsaglam/recur/internal/store"
)

func (r *runner) newWatchCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run in the background and notify when tasks become due",
		Args:  exactArgs(0, "watch [--quiet]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := r.session(ctx)
			if err != nil {
				return err
			}
			n := r.notifier()
			if quiet {
				n = notify.Log{Logger: r.log}
			}
			r.log.Info("watching", "tasks", len(sess.Tasks()), "path", sess.Dir(), "tick", r.cfg.Tick)
			return watch(ctx, sess, n, r.cfg.Notify.Icon, r.cfg.Tick)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "log reminders instead of showing desktop notifications")
	return cmd
}

// watch runs the scheduler until ctx is done, reloading when another
// process writes the data files.
func watch(ctx context.Context, sess *app.Session, n notify.Notifier, icon string, tick time.Duration) error {
	log := sess.Logger()
	if sess.Dir() == "" {
		log.Debug("live reload disabled", "reason", "no data dir")
	} else if changes, err := store.Watch(ctx, sess.Dir()); err != nil {
		log.Warn("live reload disabled", "path", sess.Dir(), "err", err)
	} else {
		go func() {
			for range changes {
				if err := sess.Reload(ctx); err != nil {
					log.Warn("reload failed", "err", err)
				}
			}
		}()
	}

	err := scheduler.Run(ctx, tick, func(time.Time) {
		for _, d := range sess.Tick(sess.Now()) {
			log.Info("task due", "id", d.Task.ID, "task", d.Task.Title)
			if err := n.Notify(ctx, notify.DueMessage(d.Task.Title, icon)); err != nil {
				log.Warn("notification failed", "task", d.Task.Title, "err", err)
			}
		}
	})
	if ctx.Err() != nil {
		log.Info("watch stopped")
		return nil
	}
	return err
}

func (r *runner) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web interface and JSON API",
		Args:  exactArgs(0, "serve [--addr host:port]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := r.session(ctx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = r.cfg.Serve.Addr
			}
			srv, err := server.New(ctx, sess, server.Options{CacheName: r.cfg.Cache.Name, Logger: r.log})
			if err != nil {
				return err
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config serve.addr)")
	return cmd
}
