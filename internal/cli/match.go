package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/engine"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	RequireMatch bool
}

// MatchResult is the outcome of evaluating criteria over events.
type MatchResult struct {
	Matched    bool   `json:"matched"`
	CriteriaID string `json:"criteria_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Criteria   int    `json:"criteria,omitempty"`
	Events     int    `json:"events"`
}

// RenderText prints the match in text mode.
func (r MatchResult) RenderText(w io.Writer) {
	if !r.Matched {
		fmt.Fprintln(w, "no match")
		return
	}
	if r.UserID != "" {
		fmt.Fprintf(w, "matched %s (user %s)\n", r.CriteriaID, r.UserID)
		return
	}
	fmt.Fprintf(w, "matched %s\n", r.CriteriaID)
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <criteria> <events>",
		Short: "Match events from a file against a criteria document",
		Long: `Evaluate an event list against a criteria document and print the id of
the first criteria that holds.

The criteria document is a .json file, a .cue file, or a directory
holding a CUE package. The events file is a JSON array of objects, or
a YAML list of mappings (.yaml, .yml).

Exit codes:
  0 - Evaluated (matched, or no match without --require-match)
  1 - No match with --require-match
  2 - Command error (unreadable files, etc.)

Examples:
  criteria match criteria.json events.json
  criteria match criteria.cue events.yaml --require-match
  criteria match ./criteria events.json --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.RequireMatch, "require-match", false, "exit 1 when no criteria matches")

	return cmd
}

func runMatch(opts *MatchOptions, criteriaPath, eventsPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := LoadCriteriaDocument(criteriaPath)
	if err != nil {
		return formatter.fail(ExitCommandError, loadErrorCode(err), "failed to load criteria", err)
	}
	list, err := criteria.Parse(doc)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeParseFailed, "failed to parse criteria", err)
	}

	events, err := LoadEvents(eventsPath)
	if err != nil {
		return formatter.fail(ExitCommandError, loadErrorCode(err), "failed to load events", err)
	}
	formatter.VerboseLog("Loaded %d criteria and %d event(s)", len(list), len(events))

	checker := engine.NewChecker(engine.WithLogger(opts.Logger(cmd.ErrOrStderr())))
	id, ok := checker.Match(list, events)

	return outputMatch(formatter, opts.RequireMatch, MatchResult{
		Matched:    ok,
		CriteriaID: id,
		Criteria:   len(list),
		Events:     len(events),
	})
}

// outputMatch prints a match result; with requireMatch, no match is a
// failure.
func outputMatch(formatter *OutputFormatter, requireMatch bool, result MatchResult) error {
	if result.Matched || !requireMatch {
		return formatter.Success(result)
	}
	if err := formatter.Failure(ErrCodeNoMatch, "no criteria matched", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "no criteria matched")
}
