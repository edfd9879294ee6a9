package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/criteria"
)

// CriteriaWarning is a validation warning tagged with its criteria.
type CriteriaWarning struct {
	CriteriaID string `json:"criteria_id"`
	criteria.Warning
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Criteria []string          `json:"criteria"`
	Warnings []CriteriaWarning `json:"warnings,omitempty"`
}

// RenderText prints the validation result in text mode.
func (r ValidationResult) RenderText(w io.Writer) {
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "criteria %s: %s\n", warn.CriteriaID, warn.Warning)
	}
	if r.Valid {
		fmt.Fprintf(w, "✓ %d criteria valid\n", len(r.Criteria))
		return
	}
	fmt.Fprintf(w, "✗ %d warning(s) in %d criteria\n", len(r.Warnings), len(r.Criteria))
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <criteria>",
		Short: "Check a criteria document for constructs that cannot match",
		Long: `Parse a criteria document and report suspicious constructs: unknown
combinators or comparators, missing event types, invalid regular
expressions, and similar. Warnings never stop evaluation; the checker
fails the affected node instead.

Exit codes:
  0 - No warnings
  1 - One or more warnings
  2 - Command error (unreadable or undecodable document)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := LoadCriteriaDocument(path)
	if err != nil {
		return formatter.fail(ExitCommandError, loadErrorCode(err), "failed to load criteria", err)
	}

	list, err := criteria.Parse(doc)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeParseFailed, "failed to parse criteria", err)
	}

	result := ValidationResult{Valid: true, Criteria: make([]string, 0, len(list))}
	for _, c := range list {
		formatter.VerboseLog("Validating criteria: %s", c.ID)
		result.Criteria = append(result.Criteria, c.ID)
		for _, w := range criteria.Validate(c).Warnings {
			result.Warnings = append(result.Warnings, CriteriaWarning{CriteriaID: c.ID, Warning: w})
		}
	}

	if len(result.Warnings) == 0 {
		return formatter.Success(result)
	}

	result.Valid = false
	if err := formatter.Failure(ErrCodeWarnings, fmt.Sprintf("%d warning(s)", len(result.Warnings)), result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation warning(s)", len(result.Warnings)))
}
