package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/reconcile"
	"github.com/roach88/tracklog/internal/store"
)

// TransformOptions holds flags for the transform command.
type TransformOptions struct {
	*RootOptions
}

// NewTransformCommand creates the transform command.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Replay new rewrite rules over the catalog",
		Long: `Replay rewrite rules over every album and track that has not seen
them yet. Each changed record is reported with its before and after
forms. The whole run commits as one transaction, so an interrupted run
leaves the catalog where it was and picks up from there next time.

A catalog that is already at the newest rule prints nothing.

Example:
  tracklog transform`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(opts, cmd)
		},
	}

	return cmd
}

func runTransform(opts *TransformOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	var lines []string
	err := withTx(ctx, opts.Config, func(tx *store.Tx) error {
		rules, err := tx.LoadRules(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load rules", err)
		}

		rec := reconcile.New(tx, rules, func(line string) { lines = append(lines, line) },
			reconcile.WithLogger(opts.Logger))
		if _, err := rec.Run(ctx); err != nil {
			return WrapExitError(ExitFailure, "catch-up run failed", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Statuses(lines)
}
