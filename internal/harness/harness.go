package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/store"
	"github.com/roach88/criteria/internal/testutil"
	"github.com/roach88/criteria/internal/tracker"
)

// Harness is the test execution engine.
// It drives a real tracker over a fresh in-memory store.
type Harness struct {
	store   *store.Store
	tracker *tracker.Tracker
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// Option configures a harness run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes tracker and checker logs to logger.
// By default logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Set initial consent and cache the scenario's criteria
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions against the final state
//
// A returned error means the scenario could not be executed at all.
// Expectation failures are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock(time.Time{}, time.Second)
	trackerOpts := []tracker.Option{
		tracker.WithLogger(cfg.logger),
		tracker.WithClock(clock),
		tracker.WithIDGenerator(testutil.NewStaticIDGenerator(scenario.UserID)),
	}
	if scenario.EventThreshold > 0 {
		trackerOpts = append(trackerOpts, tracker.WithEventThreshold(scenario.EventThreshold))
	}

	h := &Harness{
		store:   st,
		tracker: tracker.New(st, trackerOpts...),
		clock:   clock,
		logger:  cfg.logger,
	}

	ctx := context.Background()

	consent := true
	if scenario.Consent != nil {
		consent = *scenario.Consent
	}
	if err := st.SetConsent(ctx, consent); err != nil {
		return nil, fmt.Errorf("failed to set consent: %w", err)
	}
	if scenario.Criteria != "" {
		if err := h.fetch(ctx, scenario.Criteria); err != nil {
			return nil, err
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one step and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	var (
		m       tracker.Match
		matched bool
		err     error
	)

	switch step.Action {
	case ActionTrack:
		var dataFields ir.IRObject
		if dataFields, err = convertFields(step.DataFields); err != nil {
			return err
		}
		m, matched, err = h.tracker.Track(ctx, step.Name, dataFields)

	case ActionPurchase:
		var (
			items      []ir.Item
			dataFields ir.IRObject
		)
		if items, err = toItems(step.Items); err != nil {
			return err
		}
		if dataFields, err = convertFields(step.DataFields); err != nil {
			return err
		}
		m, matched, err = h.tracker.TrackPurchase(ctx, step.Total, items, dataFields)

	case ActionUpdateCart:
		var items []ir.Item
		if items, err = toItems(step.Items); err != nil {
			return err
		}
		m, matched, err = h.tracker.TrackUpdateCart(ctx, items)

	case ActionTokenRegistration:
		m, matched, err = h.tracker.TrackTokenRegistration(ctx, step.Token)

	case ActionUpdateUser:
		var fields ir.IRObject
		if fields, err = convertFields(step.Fields); err != nil {
			return err
		}
		m, matched, err = h.tracker.UpdateUser(ctx, fields)

	case ActionConsent:
		err = h.store.SetConsent(ctx, *step.Consent)

	case ActionFetch:
		if err = h.fetch(ctx, step.Criteria); err != nil {
			return err
		}
		m, matched, err = h.tracker.Evaluate(ctx)

	case ActionEvaluate:
		m, matched, err = h.tracker.Evaluate(ctx)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	if err != nil {
		return err
	}

	h.logger.Debug("scenario step",
		"step", index,
		"action", step.Action,
		"matched", matched,
		"criteria_id", m.CriteriaID)
	result.AddTrace(index, step.Action, m, matched)
	checkExpect(index, step, m, matched, result)
	return nil
}

// fetch caches the criteria document at path, as a remote fetch would.
func (h *Harness) fetch(ctx context.Context, path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read criteria: %w", err)
	}
	if _, err := h.store.SaveCriteria(ctx, doc, h.clock.Now()); err != nil {
		return fmt.Errorf("failed to cache criteria: %w", err)
	}
	return nil
}

// collect copies the final visitor state into result.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	events, err := h.tracker.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	result.Events = events

	rec, ok, err := h.store.ReadMatch(ctx)
	if err != nil {
		return fmt.Errorf("failed to read match: %w", err)
	}
	if ok {
		m := tracker.Match(rec)
		result.Match = &m
	}
	return nil
}

func checkExpect(index int, step Step, m tracker.Match, matched bool, result *Result) {
	if step.Expect == nil {
		return
	}
	switch {
	case step.Expect.Match != "" && !matched:
		result.AddError(fmt.Sprintf("step %d (%s): expected match %q, got no match",
			index, step.Action, step.Expect.Match))
	case step.Expect.Match != "" && m.CriteriaID != step.Expect.Match:
		result.AddError(fmt.Sprintf("step %d (%s): expected match %q, got %q",
			index, step.Action, step.Expect.Match, m.CriteriaID))
	case step.Expect.NoMatch && matched:
		result.AddError(fmt.Sprintf("step %d (%s): expected no match, got %q",
			index, step.Action, m.CriteriaID))
	}
}
