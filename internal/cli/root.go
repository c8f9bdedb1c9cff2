package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/config"
	"github.com/roach88/tracklog/internal/logging"
)

// RootOptions holds global flags for all commands, plus the configuration
// and logger PersistentPreRunE derives from them.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Verbose    bool
	Format     string // "json" | "text"

	Config   *config.Config
	Logger   zerolog.Logger
	Activity *logging.ActivityLog
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tracklog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tracklog",
		Short: "tracklog - a listening log for music plays",
		Long: `Records music plays in a local catalog: which track, when, and where
it was heard. Albums are registered from their files, logged plays are
matched back to albums, and naming fixes are written once as numbered
rewrite rules that replay over everything already in the catalog.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default ~/.tracklog/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewAlbumCommand(opts))
	cmd.AddCommand(NewTransformCommand(opts))
	cmd.AddCommand(NewAssociateCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger and activity log.
// Flag values override the file.
func (o *RootOptions) setup() error {
	path := o.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	if o.DBPath != "" {
		cfg.DB = o.DBPath
	}
	o.Config = cfg

	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	o.Logger = logging.New(logging.Config{Level: level, Pretty: cfg.Log.Pretty})

	if logPath := cfg.ActivityLogPath(); logPath != "" {
		o.Activity = logging.NewActivityLog(logPath, os.Stderr)
	}
	return nil
}

// formatter returns an OutputFormatter writing to cmd's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
