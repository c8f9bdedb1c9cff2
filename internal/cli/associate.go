package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/ingest"
	"github.com/roach88/tracklog/internal/store"
)

// AssociateOptions holds flags for the associate command.
type AssociateOptions struct {
	*RootOptions
}

// NewAssociateCommand creates the associate command.
func NewAssociateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssociateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "associate",
		Short: "Match albumless tracks to catalogued albums",
		Long: `Match every track logged without an album to the catalog. Tracks are
matched on (artist, album), falling back to a "Various" compilation
with the same album name. Pairs with no catalogued album are listed
once each; register the album and run associate again.

Example:
  tracklog associate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssociate(opts, cmd)
		},
	}

	return cmd
}

func runAssociate(opts *AssociateOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	var statuses []string
	err := withTx(ctx, opts.Config, func(tx *store.Tx) error {
		lines, err := ingest.Associate(ctx, tx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to associate tracks", err)
		}
		statuses = lines
		return nil
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Statuses(statuses)
}
