package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/ingest"
	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/resolver"
	"github.com/roach88/tracklog/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Source string
	Time   string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log <filename>...",
		Short: "Log plays of one or more audio files",
		Long: `Log plays of one or more audio files.

Tags are read from each file, the rewrite rules are applied, and the play
is matched to a catalogued album where one exists. A single file logs at
the current time; multiple files are back-dated so the last one ends now,
each track starting when the previous one finished.

The --time value accepts exact timestamps and phrases like "2 hours ago".
With multiple files an explicit --time anchors the first track, so times
can land in the future if it is not far enough in the past.

Example:
  tracklog log ~/music/album/01-track.mp3
  tracklog log --source car --time "2 hours ago" *.flac`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "where the play happened (xmms|car|stereo|cafe|vinyl; default from config)")
	cmd.Flags().StringVarP(&opts.Time, "time", "t", "", "timestamp of the play (default now)")

	return cmd
}

// runLog wraps the actual logging so that every invocation and outcome,
// failures included, lands in the activity log. A play should leave a
// trace even when the database is down.
func runLog(opts *LogOptions, filenames []string, cmd *cobra.Command) error {
	if opts.Activity != nil {
		cwd, _ := os.Getwd()
		opts.Activity.Invocation(cwd, os.Args)
	}

	err := logFiles(opts, filenames, cmd)
	if err != nil && opts.Activity != nil {
		opts.Activity.Result(err.Error())
	}
	return err
}

func logFiles(opts *LogOptions, filenames []string, cmd *cobra.Command) error {
	source := library.Source(opts.Source)
	if opts.Source == "" {
		source = library.Source(opts.Config.DefaultSource)
	}
	if !source.Valid() {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown source %q (valid: %v)", source, library.Sources()))
	}

	ctx := cmd.Context()
	var statuses []string
	err := withTx(ctx, opts.Config, func(tx *store.Tx) error {
		rules, err := tx.LoadRules(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load rules", err)
		}

		logger := ingest.NewLogger(tx, rules, resolver.New(tx))
		_, lines, err := logger.LogFiles(ctx, filenames, source, opts.Time)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to log tracks", err)
		}
		statuses = lines
		return nil
	})
	if err != nil {
		return err
	}

	if opts.Activity != nil {
		opts.Activity.Results(statuses)
	}
	return opts.formatter(cmd).Statuses(statuses)
}
