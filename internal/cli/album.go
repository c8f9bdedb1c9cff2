package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/ingest"
	"github.com/roach88/tracklog/internal/library"
	"github.com/roach88/tracklog/internal/store"
)

// AlbumAddOptions holds flags for the album add command.
type AlbumAddOptions struct {
	*RootOptions
	EP        bool
	Live      bool
	Force     bool
	Normalize bool
}

// NewAlbumCommand creates the album command group.
func NewAlbumCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "album",
		Short: "Manage the album catalog",
	}

	cmd.AddCommand(NewAlbumAddCommand(rootOpts))

	return cmd
}

// NewAlbumAddCommand creates the album add command.
func NewAlbumAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AlbumAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <filename>...",
		Short: "Register an album from its audio files",
		Long: `Register an album from the audio files that make it up.

Every file must carry artist and album tags and name the same album.
Files by different artists are taken as a compilation and stored under
the artist "Various". Track count and total running time come from the
files, so pass the whole album.

An album already in the catalog is shown with what would change;
--force performs the update.

Example:
  tracklog album add ~/music/album/*.mp3
  tracklog album add --ep --force disc/*.flac`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlbumAdd(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.EP, "ep", false, "store the album as an EP")
	cmd.Flags().BoolVar(&opts.Live, "live", false, "store the album as a live recording")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "update an album already in the catalog")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "title-case the artist and album names")
	cmd.MarkFlagsMutuallyExclusive("ep", "live")

	return cmd
}

func runAlbumAdd(opts *AlbumAddOptions, filenames []string, cmd *cobra.Command) error {
	typ := library.TypeAlbum
	switch {
	case opts.EP:
		typ = library.TypeEP
	case opts.Live:
		typ = library.TypeLive
	}

	ctx := cmd.Context()
	var statuses []string
	err := withTx(ctx, opts.Config, func(tx *store.Tx) error {
		rules, err := tx.LoadRules(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load rules", err)
		}

		adder := ingest.NewAlbumAdder(tx, rules)
		_, lines, err := adder.Add(ctx, filenames, typ, opts.Force, opts.Normalize)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to add album", err)
		}
		statuses = lines
		return nil
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Statuses(statuses)
}
