package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/report"
	"github.com/roach88/tracklog/internal/store"
)

// ReportYearlyOptions holds flags for the report yearly command.
type ReportYearlyOptions struct {
	*RootOptions
	Output string
}

// ReportMilestonesOptions holds flags for the report milestones command.
type ReportMilestonesOptions struct {
	*RootOptions
	Interval int64
}

// NewReportCommand creates the report command group.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Listening statistics",
	}

	cmd.AddCommand(NewReportYearlyCommand(rootOpts))
	cmd.AddCommand(NewReportMilestonesCommand(rootOpts))

	return cmd
}

// NewReportYearlyCommand creates the report yearly command.
func NewReportYearlyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportYearlyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Tracks and hours listened per year, as CSV",
		Long: `Write per-year listening statistics as CSV: track count, hours
listened, and minutes per track, one row per calendar year from the
first logged play to the last.

Output is CSV regardless of --format. An existing --output file is
never overwritten.

Example:
  tracklog report yearly
  tracklog report yearly --output listening.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportYearly(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", `file to write to ("-" for stdout)`)

	return cmd
}

func runReportYearly(opts *ReportYearlyOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if opts.Output != "" && opts.Output != "-" {
		if _, err := os.Stat(opts.Output); err == nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("output file %q already exists", opts.Output))
		}
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	ctx := cmd.Context()
	err := withStore(opts.Config, func(st *store.Store) error {
		if err := report.Yearly(ctx, st, out); err != nil {
			return WrapExitError(ExitFailure, "yearly report failed", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Done!")
	return nil
}

// NewReportMilestonesCommand creates the report milestones command.
func NewReportMilestonesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportMilestonesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "milestones",
		Short: "Every N-th play in listening order",
		Long: `List the total play count and every N-th play in listening order:
the 10,000th track heard, the 20,000th, and so on.

Example:
  tracklog report milestones
  tracklog report milestones --interval 5000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportMilestones(opts, cmd)
		},
	}

	cmd.Flags().Int64VarP(&opts.Interval, "interval", "i", report.DefaultInterval, "milestone spacing")

	return cmd
}

func runReportMilestones(opts *ReportMilestonesOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	return withStore(opts.Config, func(st *store.Store) error {
		if err := report.Milestones(ctx, st, cmd.OutOrStdout(), opts.Interval); err != nil {
			return WrapExitError(ExitFailure, "milestone report failed", err)
		}
		return nil
	})
}
