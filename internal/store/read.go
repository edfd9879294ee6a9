package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/criteria/internal/ir"
)

// ReadEvents returns the buffered events in insertion order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the buffer is empty.
func (s *Store) ReadEvents(ctx context.Context) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, payload
		FROM events
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []StoredEvent{}
	for rows.Next() {
		var se StoredEvent
		var payload string
		if err := rows.Scan(&se.ID, &se.Seq, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if se.Event, err = unmarshalPayload(payload); err != nil {
			return nil, fmt.Errorf("event %s: %w", se.ID, err)
		}
		events = append(events, se)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// CountEvents returns the number of buffered events per event type.
func (s *Store) CountEvents(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*)
		FROM events
		GROUP BY event_type
		ORDER BY event_type COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts[eventType] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event counts: %w", err)
	}
	return counts, nil
}

// LastSeq returns the highest buffered seq, or 0 for an empty buffer.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

// ReadUserUpdate returns the merged user update. ok is false when no
// update has been stored.
func (s *Store) ReadUserUpdate(ctx context.Context) (update ir.IRObject, ok bool, err error) {
	var payload string
	err = s.db.QueryRowContext(ctx, `
		SELECT payload FROM user_update WHERE id = 1
	`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read user update: %w", err)
	}

	update, err = unmarshalPayload(payload)
	if err != nil {
		return nil, false, fmt.Errorf("read user update: %w", err)
	}
	return update, true, nil
}

// LoadCriteria returns the cached criteria document.
// Returns an error wrapping sql.ErrNoRows if nothing is cached.
func (s *Store) LoadCriteria(ctx context.Context) (CachedCriteria, error) {
	var cached CachedCriteria
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT document, hash, fetched_at FROM criteria_cache WHERE id = 1
	`).Scan(&cached.Document, &cached.Hash, &fetchedAt)
	if err != nil {
		return CachedCriteria{}, fmt.Errorf("load criteria: %w", err)
	}
	cached.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	return cached, nil
}

// Consent reports whether the visitor allows events to be stored.
// Consent defaults to false.
func (s *Store) Consent(ctx context.Context) (bool, error) {
	var consent bool
	err := s.db.QueryRowContext(ctx, `
		SELECT consent FROM visitor WHERE id = 1
	`).Scan(&consent)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read consent: %w", err)
	}
	return consent, nil
}

// ReadMatch returns the recorded match. ok is false when the visitor has
// not matched any criteria.
func (s *Store) ReadMatch(ctx context.Context) (match MatchRecord, ok bool, err error) {
	var criteriaID, userID sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT matched_criteria_id, user_id FROM visitor WHERE id = 1
	`).Scan(&criteriaID, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return MatchRecord{}, false, nil
	}
	if err != nil {
		return MatchRecord{}, false, fmt.Errorf("read match: %w", err)
	}
	if !criteriaID.Valid {
		return MatchRecord{}, false, nil
	}
	return MatchRecord{CriteriaID: criteriaID.String, UserID: userID.String}, true, nil
}
