package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/recur/internal/store"
	"github.com/idilsaglam/recur/internal/ui"
)

func (r *runner) newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tasks and history as YAML or JSON",
		Args:  exactArgs(0, "export [--format yaml|json] [-o file]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = store.FormatFromPath(output)
			}
			if format != store.FormatYAML && format != store.FormatJSON {
				return usagef("export: unknown format %q (want yaml or json)", format)
			}
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			snap := sess.Snapshot()

			var w io.Writer = r.env.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := store.EncodeSnapshot(w, snap, format); err != nil {
				return err
			}
			if output != "" && output != "-" {
				ui.OK(fmt.Sprintf("exported %d tasks and %d completions to %s", len(snap.Tasks), len(snap.Completions), output))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "yaml or json (default from file extension, else yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (r *runner) newImportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace tasks and history with an exported snapshot",
		Args:  exactArgs(1, "import <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if format == "" {
				format = store.FormatFromPath(path)
			}
			var in io.Reader = r.env.Stdin
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				defer f.Close()
				in = f
			}
			snap, err := store.DecodeSnapshot(in, format)
			if err != nil {
				return err
			}
			sess, err := r.session(cmd.Context())
			if err != nil {
				return err
			}
			skipped, err := sess.Import(cmd.Context(), snap)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("imported %d tasks and %d completions", len(sess.Tasks()), len(sess.History()))
			if skipped > 0 {
				msg += fmt.Sprintf(" (skipped %d invalid tasks)", skipped)
			}
			ui.OK(msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "yaml or json (default from file extension)")
	return cmd
}
