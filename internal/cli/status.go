package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// StatusResult summarizes the visitor database.
type StatusResult struct {
	Consent    bool           `json:"consent"`
	Matched    bool           `json:"matched"`
	CriteriaID string         `json:"criteria_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Events     map[string]int `json:"events"`
	LastSeq    int64          `json:"last_seq"`
	UserUpdate bool           `json:"user_update"`
	Criteria   *CachedStatus  `json:"criteria,omitempty"`
}

// CachedStatus describes the cached criteria document.
type CachedStatus struct {
	Hash      string    `json:"hash"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RenderText prints the status in text mode.
func (r StatusResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "consent:  %t\n", r.Consent)
	if r.Matched {
		fmt.Fprintf(w, "match:    %s (user %s)\n", r.CriteriaID, r.UserID)
	} else {
		fmt.Fprintln(w, "match:    none")
	}
	if r.Criteria != nil {
		fmt.Fprintf(w, "criteria: %s fetched %s\n", shortHash(r.Criteria.Hash), r.Criteria.FetchedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "criteria: none")
	}

	types := make([]string, 0, len(r.Events))
	total := 0
	for t, n := range r.Events {
		types = append(types, t)
		total += n
	}
	sort.Strings(types)
	fmt.Fprintf(w, "events:   %d (last seq %d)\n", total, r.LastSeq)
	for _, t := range types {
		fmt.Fprintf(w, "  %s: %d\n", t, r.Events[t])
	}
	fmt.Fprintf(w, "user:     %t\n", r.UserUpdate)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newStoreOptions(rootOpts)

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show consent, match, cached criteria, and buffered events",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runStatus(opts *StoreOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	st, _, err := opts.openStore(cmd)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer closeStore(st, opts.Logger(cmd.ErrOrStderr()))

	var result StatusResult
	if result.Consent, err = st.Consent(ctx); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read consent", err)
	}

	m, ok, err := st.ReadMatch(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read match", err)
	}
	result.Matched, result.CriteriaID, result.UserID = ok, m.CriteriaID, m.UserID

	if result.Events, err = st.CountEvents(ctx); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to count events", err)
	}
	if result.LastSeq, err = st.LastSeq(ctx); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read sequence", err)
	}
	if _, result.UserUpdate, err = st.ReadUserUpdate(ctx); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read user update", err)
	}

	cached, err := st.LoadCriteria(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read criteria", err)
	default:
		result.Criteria = &CachedStatus{Hash: cached.Hash, FetchedAt: cached.FetchedAt}
	}

	return formatter.Success(result)
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newStoreOptions(rootOpts)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard buffered events and the user update",
		Long: `Discard buffered events and the merged user update. Consent, the cached
criteria document, and any recorded match are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)

			st, _, err := opts.openStore(cmd)
			if err != nil {
				return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
			}
			defer closeStore(st, opts.Logger(cmd.ErrOrStderr()))

			if err := st.Clear(cmd.Context()); err != nil {
				return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to clear events", err)
			}
			return formatter.Success("events cleared")
		},
	}

	opts.addFlags(cmd)

	return cmd
}
