package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/criteria/internal/engine"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/store"
)

// DefaultEventThreshold is the number of buffered events kept by default.
const DefaultEventThreshold = 100

// Clock supplies event timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Match is a recorded promotion of the visitor.
type Match struct {
	CriteriaID string `json:"criteria_id"`
	UserID     string `json:"user_id"`
}

// Tracker stores visitor events and evaluates criteria after each one.
//
// Thread-safety: Tracker is safe for concurrent use. A mutex serializes
// store-then-evaluate so every evaluation sees a consistent buffer.
type Tracker struct {
	mu        sync.Mutex
	store     *store.Store
	checker   *engine.Checker
	clock     Clock
	ids       IDGenerator
	threshold int
	logger    *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for the tracker and its checker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithClock sets the clock used for event timestamps.
func WithClock(clock Clock) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithIDGenerator sets the generator for visitor user ids.
func WithIDGenerator(ids IDGenerator) Option {
	return func(t *Tracker) {
		if ids != nil {
			t.ids = ids
		}
	}
}

// WithEventThreshold sets how many events the buffer keeps. Values below
// one are ignored.
func WithEventThreshold(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.threshold = n
		}
	}
}

// New creates a Tracker over st. The caller keeps ownership of st.
func New(st *store.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:     st,
		clock:     systemClock{},
		ids:       UUIDGenerator{},
		threshold: DefaultEventThreshold,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.checker = engine.NewChecker(engine.WithLogger(t.logger))
	return t
}

// Track records a custom event named name.
func (t *Tracker) Track(ctx context.Context, name string, dataFields ir.IRObject) (Match, bool, error) {
	body := ir.IRObject{
		ir.FieldEventName:       ir.IRString(name),
		ir.FieldCreatedAt:       ir.IRInt(t.clock.Now().Unix()),
		ir.FieldCreateNewFields: ir.IRBool(true),
	}
	if dataFields != nil {
		body[ir.FieldDataFields] = dataFields.Clone()
	}
	return t.record(ctx, ir.EventTypeCustom, body)
}

// TrackPurchase records a purchase of items.
func (t *Tracker) TrackPurchase(ctx context.Context, total float64, items []ir.Item, dataFields ir.IRObject) (Match, bool, error) {
	body := ir.IRObject{
		ir.FieldCreatedAt: ir.IRInt(t.clock.Now().Unix()),
		ir.FieldTotal:     ir.IRFloat(total),
		ir.FieldItems:     ir.ItemsToArray(items),
	}
	if dataFields != nil {
		body[ir.FieldDataFields] = dataFields.Clone()
	}
	return t.record(ctx, ir.EventTypePurchase, body)
}

// TrackUpdateCart records the current cart contents.
func (t *Tracker) TrackUpdateCart(ctx context.Context, items []ir.Item) (Match, bool, error) {
	body := ir.IRObject{
		ir.FieldCreatedAt: ir.IRInt(t.clock.Now().Unix()),
		ir.FieldItems:     ir.ItemsToArray(items),
	}
	return t.record(ctx, ir.EventTypeUpdateCart, body)
}

// TrackTokenRegistration records a push token registration.
func (t *Tracker) TrackTokenRegistration(ctx context.Context, token string) (Match, bool, error) {
	return t.record(ctx, ir.EventTypeTokenRegistration, ir.IRObject{
		ir.FieldToken: ir.IRString(token),
	})
}

// UpdateUser merges fields into the visitor's user update.
func (t *Tracker) UpdateUser(ctx context.Context, fields ir.IRObject) (Match, bool, error) {
	return t.record(ctx, ir.EventTypeUpdateUser, fields.Clone())
}

// Evaluate checks the buffered events against the cached criteria without
// storing anything.
func (t *Tracker) Evaluate(ctx context.Context) (Match, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok, err := t.store.ReadMatch(ctx); err != nil || ok {
		return Match(m), ok, err
	}
	return t.evaluate(ctx)
}

// record stores one event and evaluates. The event type and timestamp are
// stamped here.
func (t *Tracker) record(ctx context.Context, eventType string, body ir.IRObject) (Match, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok, err := t.store.ReadMatch(ctx); err != nil || ok {
		if ok {
			t.logger.Debug("visitor already matched", "criteria_id", m.CriteriaID)
		}
		return Match(m), ok, err
	}

	consent, err := t.store.Consent(ctx)
	if err != nil {
		return Match{}, false, fmt.Errorf("track %s: %w", eventType, err)
	}
	if !consent {
		t.logger.Info("tracking consent not given, event dropped", "event_type", eventType)
		return Match{}, false, nil
	}

	if body == nil {
		body = ir.IRObject{}
	}
	ir.SetEventType(body, eventType)
	body[ir.FieldEventTimeStamp] = ir.IRInt(t.clock.Now().Unix())

	if eventType == ir.EventTypeUpdateUser {
		if _, err := t.store.MergeUserUpdate(ctx, body); err != nil {
			return Match{}, false, fmt.Errorf("track %s: %w", eventType, err)
		}
	} else {
		stored, err := t.store.AppendEvent(ctx, body)
		if err != nil {
			return Match{}, false, fmt.Errorf("track %s: %w", eventType, err)
		}
		removed, err := t.store.TrimEvents(ctx, t.threshold)
		if err != nil {
			return Match{}, false, fmt.Errorf("track %s: %w", eventType, err)
		}
		t.logger.Debug("event stored",
			"event_type", eventType,
			"seq", stored.Seq,
			"id", stored.ID,
			"trimmed", removed)
	}

	return t.evaluate(ctx)
}

// evaluate runs the cached criteria over the buffer. Callers hold t.mu.
func (t *Tracker) evaluate(ctx context.Context) (Match, bool, error) {
	cached, err := t.store.LoadCriteria(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		t.logger.Debug("no cached criteria")
		return Match{}, false, nil
	}
	if err != nil {
		return Match{}, false, fmt.Errorf("evaluate: %w", err)
	}

	events, err := t.Events(ctx)
	if err != nil {
		return Match{}, false, fmt.Errorf("evaluate: %w", err)
	}
	if len(events) == 0 {
		return Match{}, false, nil
	}

	criteriaID, ok := t.checker.CheckDocument(cached.Document, events)
	if !ok {
		return Match{}, false, nil
	}

	m := Match{CriteriaID: criteriaID, UserID: t.ids.Generate()}
	if _, err := t.store.RecordMatch(ctx, m.CriteriaID, m.UserID); err != nil {
		return Match{}, false, fmt.Errorf("evaluate: %w", err)
	}
	t.logger.Info("visitor promoted", "criteria_id", m.CriteriaID, "user_id", m.UserID)
	return m, true, nil
}

// Events returns the list the engine evaluates: buffered events in order,
// followed by the merged user update if there is one.
func (t *Tracker) Events(ctx context.Context) ([]ir.Event, error) {
	stored, err := t.store.ReadEvents(ctx)
	if err != nil {
		return nil, err
	}
	events := store.Events(stored)

	update, ok, err := t.store.ReadUserUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		events = append(events, update)
	}
	return events, nil
}
