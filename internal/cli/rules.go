package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tracklog/internal/rulefile"
	"github.com/roach88/tracklog/internal/store"
	"github.com/roach88/tracklog/internal/transform"
)

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the rewrite rules",
		Long: `Manage the rewrite rules.

Rules are authored in CUE files and imported into the catalog, where
the row id assigned on import becomes the rule's permanent number.
Records carry the number of the last rule applied to them, so new
rules only ever replay forward.`,
	}

	cmd.AddCommand(NewRulesImportCommand(rootOpts))
	cmd.AddCommand(NewRulesCheckCommand(rootOpts))
	cmd.AddCommand(NewRulesListCommand(rootOpts))

	return cmd
}

// NewRulesImportCommand creates the rules import command.
func NewRulesImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <rules.cue>",
		Short: "Import rules from a CUE file into the catalog",
		Long: `Import rules from a CUE file into the catalog, in file order.

Each rule is assigned the next id. Importing does not rewrite anything
by itself; run "tracklog transform" afterwards to replay the new rules
over the catalog.

Example:
  tracklog rules import fixups.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesImport(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRulesImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	defs, err := rulefile.Load(path)
	if err != nil {
		return ruleFileError(opts.formatter(cmd), err)
	}
	if len(defs) == 0 {
		return opts.formatter(cmd).Statuses([]string{fmt.Sprintf("No rules found in %s", path)})
	}

	ctx := cmd.Context()
	var statuses []string
	err = withTx(ctx, opts.Config, func(tx *store.Tx) error {
		for _, def := range defs {
			id, err := tx.InsertRule(ctx, def.Ops)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to insert rule", err)
			}
			rule := &transform.Rule{ID: id, Ops: def.Ops}
			statuses = append(statuses, fmt.Sprintf("Imported %s", rule))
		}
		// Reload before committing so a broken id sequence aborts the
		// import instead of landing in the catalog.
		if _, err := tx.LoadRules(ctx); err != nil {
			return WrapExitError(ExitCommandError, "imported rules failed to reload", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	statuses = append(statuses, fmt.Sprintf("Imported %d rule(s) from %s", len(defs), path))
	return opts.formatter(cmd).Statuses(statuses)
}

// NewRulesCheckCommand creates the rules check command.
func NewRulesCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <rules.cue>",
		Short: "Check a rule file without importing it",
		Long: `Check a rule file without touching the catalog.

Parses the file and reports each rule as it would import, or the first
problem found with its position.

Example:
  tracklog rules check fixups.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRulesCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	defs, err := rulefile.Load(path)
	if err != nil {
		return ruleFileError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]interface{}{
			"valid": true,
			"rules": len(defs),
		})
	}

	lines := []string{fmt.Sprintf("✓ %s: %d rule(s)", path, len(defs))}
	for i, def := range defs {
		// File position, not a rule id: ids are only assigned on import.
		rule := &transform.Rule{ID: int64(i + 1), Ops: def.Ops}
		lines = append(lines, "  "+rule.String())
	}
	return formatter.Statuses(lines)
}

// ruleFileError reports a rule file problem in the configured format and
// converts it to an operation failure.
func ruleFileError(formatter *OutputFormatter, err error) error {
	var loadErr *rulefile.LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), loadErr.Message)
		}
		_ = formatter.Error(loadErr.Code, msg, nil)
		return NewExitError(ExitFailure, "rule file rejected")
	}
	return WrapExitError(ExitFailure, "rule file rejected", err)
}

// NewRulesListCommand creates the rules list command.
func NewRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rules in the catalog",
		Long: `List every rule in the catalog in id order.

Example:
  tracklog rules list`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(rootOpts, cmd)
		},
	}

	return cmd
}

func runRulesList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	var statuses []string
	err := withStore(opts.Config, func(st *store.Store) error {
		rules, err := st.LoadRules(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load rules", err)
		}
		for _, rule := range rules.Rules() {
			statuses = append(statuses, rule.String())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(statuses) == 0 {
		statuses = []string{"No rules in the catalog"}
	}
	return opts.formatter(cmd).Statuses(statuses)
}
