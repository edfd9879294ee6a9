package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/criteria"
)

// FetchResult reports a cached criteria document and the evaluation that
// followed it.
type FetchResult struct {
	Hash     string      `json:"hash"`
	Criteria int         `json:"criteria"`
	Match    MatchResult `json:"match"`
}

// RenderText prints the fetch result in text mode.
func (r FetchResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "cached %d criteria (%s)\n", r.Criteria, shortHash(r.Hash))
	r.Match.RenderText(w)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newStoreOptions(rootOpts)

	cmd := &cobra.Command{
		Use:   "fetch <criteria>",
		Short: "Cache a criteria document and evaluate the buffered events",
		Long: `Replace the cached criteria document with the given one, then evaluate
the buffered events against it. The document must decode; a document that
does not is rejected and the previous cache is kept.

Examples:
  criteria fetch criteria.json --db ./visitor.db
  criteria fetch ./criteria-cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runFetch(opts *StoreOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	doc, err := LoadCriteriaDocument(path)
	if err != nil {
		return formatter.fail(ExitCommandError, loadErrorCode(err), "failed to load criteria", err)
	}
	list, err := criteria.Parse(doc)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeParseFailed, "failed to parse criteria", err)
	}

	st, tr, err := opts.openStore(cmd)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer closeStore(st, opts.Logger(cmd.ErrOrStderr()))

	now := time.Now()
	if opts.Clock != nil {
		now = opts.Clock.Now()
	}
	hash, err := st.SaveCriteria(ctx, doc, now)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to cache criteria", err)
	}
	formatter.VerboseLog("Cached criteria %s", hash)

	m, matched, err := tr.Evaluate(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to evaluate", err)
	}
	events, err := tr.Events(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read events", err)
	}

	return formatter.Success(FetchResult{
		Hash:     hash,
		Criteria: len(list),
		Match: MatchResult{
			Matched:    matched,
			CriteriaID: m.CriteriaID,
			UserID:     m.UserID,
			Events:     len(events),
		},
	})
}

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*StoreOptions
	RequireMatch bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{StoreOptions: newStoreOptions(rootOpts)}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the buffered events against the cached criteria",
		Long: `Evaluate the buffered events, followed by the merged user update, against
the cached criteria document without recording anything new.

Exit codes:
  0 - Evaluated (matched, or no match without --require-match)
  1 - No match with --require-match
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.RequireMatch, "require-match", false, "exit 1 when no criteria matches")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	st, tr, err := opts.openStore(cmd)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer closeStore(st, opts.Logger(cmd.ErrOrStderr()))

	m, matched, err := tr.Evaluate(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to evaluate", err)
	}
	events, err := tr.Events(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read events", err)
	}

	return outputMatch(formatter, opts.RequireMatch, MatchResult{
		Matched:    matched,
		CriteriaID: m.CriteriaID,
		UserID:     m.UserID,
		Events:     len(events),
	})
}
