package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/store"
	"github.com/roach88/criteria/internal/tracker"
)

// StoreOptions holds the flags shared by commands that use the visitor
// database.
type StoreOptions struct {
	*RootOptions
	Database       string
	EventThreshold int

	// IDGenerator overrides the visitor id generator (for testing).
	// If nil, defaults to tracker.UUIDGenerator.
	IDGenerator tracker.IDGenerator

	// Clock overrides the event clock (for testing).
	Clock tracker.Clock
}

func newStoreOptions(rootOpts *RootOptions) *StoreOptions {
	return &StoreOptions{RootOptions: rootOpts}
}

func (o *StoreOptions) addFlags(cmd *cobra.Command) {
	cfg := o.config()
	cmd.Flags().StringVar(&o.Database, "db", cfg.DBPath, "path to SQLite database")
	cmd.Flags().IntVar(&o.EventThreshold, "threshold", cfg.EventThreshold, "number of buffered events to keep")
}

// openStore opens the database and builds a tracker over it. The caller
// closes the store.
func (o *StoreOptions) openStore(cmd *cobra.Command) (*store.Store, *tracker.Tracker, error) {
	logger := o.Logger(cmd.ErrOrStderr())

	st, err := store.Open(o.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("database opened", "path", o.Database)

	trackerOpts := []tracker.Option{
		tracker.WithLogger(logger),
		tracker.WithEventThreshold(o.EventThreshold),
	}
	if o.IDGenerator != nil {
		trackerOpts = append(trackerOpts, tracker.WithIDGenerator(o.IDGenerator))
	}
	if o.Clock != nil {
		trackerOpts = append(trackerOpts, tracker.WithClock(o.Clock))
	}
	return st, tracker.New(st, trackerOpts...), nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// Event kinds accepted by the track command.
const (
	KindCustom   = "custom"
	KindPurchase = "purchase"
	KindCart     = "cart"
	KindToken    = "token"
	KindUser     = "user"
)

// NewTrackCommand creates the track command.
func NewTrackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newStoreOptions(rootOpts)

	cmd := &cobra.Command{
		Use:   "track <kind> <args...>",
		Short: "Record a visitor event and evaluate the cached criteria",
		Long: `Record one visitor event in the local database, then evaluate the
buffered events against the cached criteria document.

Kinds:
  custom <name> [data-fields-json]
  purchase <total> <items-json> [data-fields-json]
  cart <items-json>
  token <token>
  user <fields-json>

Events are dropped unless tracking consent was given (see "consent").
Once the visitor has matched, tracking reports the stored match.

Examples:
  criteria track custom signup '{"plan":"pro"}'
  criteria track purchase 14.01 '[{"id":"1","name":"keyboard","price":4.67,"quantity":3}]'
  criteria track user '{"country":"UK"}' --db ./visitor.db`,
		Args:          cobra.RangeArgs(2, 4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(opts, args, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runTrack(opts *StoreOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	call, err := parseTrackArgs(args)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeBadArgs, "invalid track arguments", err)
	}

	st, tr, err := opts.openStore(cmd)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer closeStore(st, opts.Logger(cmd.ErrOrStderr()))

	m, matched, err := call(ctx, tr)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to track event", err)
	}

	events, err := tr.Events(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to read events", err)
	}

	return formatter.Success(MatchResult{
		Matched:    matched,
		CriteriaID: m.CriteriaID,
		UserID:     m.UserID,
		Events:     len(events),
	})
}

type trackCall func(ctx context.Context, tr *tracker.Tracker) (tracker.Match, bool, error)

// parseTrackArgs turns "<kind> <args...>" into a tracker call.
func parseTrackArgs(args []string) (trackCall, error) {
	kind, rest := args[0], args[1:]

	switch kind {
	case KindCustom:
		if len(rest) > 2 {
			return nil, fmt.Errorf("custom takes <name> [data-fields-json]")
		}
		var dataFields ir.IRObject
		if len(rest) == 2 {
			obj, err := parseObject(rest[1])
			if err != nil {
				return nil, fmt.Errorf("data fields: %w", err)
			}
			dataFields = obj
		}
		return func(ctx context.Context, tr *tracker.Tracker) (tracker.Match, bool, error) {
			return tr.Track(ctx, rest[0], dataFields)
		}, nil

	case KindPurchase:
		if len(rest) < 2 {
			return nil, fmt.Errorf("purchase takes <total> <items-json> [data-fields-json]")
		}
		total, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return nil, fmt.Errorf("total: %w", err)
		}
		items, err := parseItems(rest[1])
		if err != nil {
			return nil, err
		}
		var dataFields ir.IRObject
		if len(rest) == 3 {
			if dataFields, err = parseObject(rest[2]); err != nil {
				return nil, fmt.Errorf("data fields: %w", err)
			}
		}
		return func(ctx context.Context, tr *tracker.Tracker) (tracker.Match, bool, error) {
			return tr.TrackPurchase(ctx, total, items, dataFields)
		}, nil

	case KindCart:
		if len(rest) != 1 {
			return nil, fmt.Errorf("cart takes <items-json>")
		}
		items, err := parseItems(rest[0])
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tr *tracker.Tracker) (tracker.Match, bool, error) {
			return tr.TrackUpdateCart(ctx, items)
		}, nil

	case KindToken:
		if len(rest) != 1 {
			return nil, fmt.Errorf("token takes <token>")
		}
		return func(ctx context.Context, tr *tracker.Tracker) (tracker.Match, bool, error) {
			return tr.TrackTokenRegistration(ctx, rest[0])
		}, nil

	case KindUser:
		if len(rest) != 1 {
			return nil, fmt.Errorf("user takes <fields-json>")
		}
		fields, err := parseObject(rest[0])
		if err != nil {
			return nil, fmt.Errorf("user fields: %w", err)
		}
		return func(ctx context.Context, tr *tracker.Tracker) (tracker.Match, bool, error) {
			return tr.UpdateUser(ctx, fields)
		}, nil

	default:
		return nil, fmt.Errorf("unknown kind %q (want custom, purchase, cart, token, or user)", kind)
	}
}

func parseObject(s string) (ir.IRObject, error) {
	v, err := ir.UnmarshalIRValue([]byte(s))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return obj, nil
}

func parseItems(s string) ([]ir.Item, error) {
	v, err := ir.UnmarshalIRValue([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("items: expected a JSON array")
	}
	items := make([]ir.Item, 0, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("items[%d]: expected an object", i)
		}
		it, err := ir.ItemFromObject(obj)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// ConsentResult reports the stored consent.
type ConsentResult struct {
	Consent bool `json:"consent"`
}

// RenderText prints the consent in text mode.
func (r ConsentResult) RenderText(w io.Writer) {
	if r.Consent {
		fmt.Fprintln(w, "tracking consent given")
		return
	}
	fmt.Fprintln(w, "tracking consent withdrawn")
}

// NewConsentCommand creates the consent command.
func NewConsentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := newStoreOptions(rootOpts)

	cmd := &cobra.Command{
		Use:   "consent <on|off>",
		Short: "Give or withdraw tracking consent",
		Long: `Set whether events may be recorded. Without consent, track drops every
event. Withdrawing consent keeps events already buffered.`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{"on", "off"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsent(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runConsent(opts *StoreOptions, value string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var consent bool
	switch value {
	case "on", "true", "yes":
		consent = true
	case "off", "false", "no":
	default:
		return formatter.fail(ExitCommandError, ErrCodeBadArgs,
			fmt.Sprintf("invalid consent %q: want on or off", value), nil)
	}

	st, _, err := opts.openStore(cmd)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	defer closeStore(st, opts.Logger(cmd.ErrOrStderr()))

	if err := st.SetConsent(cmd.Context(), consent); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to set consent", err)
	}
	return formatter.Success(ConsentResult{Consent: consent})
}
