package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/criteria/internal/ir"
)

// AppendEvent stores event at the end of the buffer and returns it with
// its assigned seq and content-addressed ID.
//
// The seq is one past the highest buffered seq. Uses ON CONFLICT(id) DO
// NOTHING, so an identical record at the same seq is written once.
func (s *Store) AppendEvent(ctx context.Context, event ir.Event) (StoredEvent, error) {
	payload, err := marshalPayload(event)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("append event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("append event: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM events
	`).Scan(&seq); err != nil {
		return StoredEvent{}, fmt.Errorf("append event: next seq: %w", err)
	}

	id, err := ir.EventID(event, seq)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("append event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events
		(id, seq, event_type, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		seq,
		ir.EventTypeOf(event),
		payload,
	)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("append event: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return StoredEvent{}, fmt.Errorf("append event: commit: %w", err)
	}

	return StoredEvent{ID: id, Seq: seq, Event: event.Clone()}, nil
}

// TrimEvents keeps only the newest limit events and returns how many were
// removed. A limit of zero empties the buffer; a negative limit keeps
// everything.
func (s *Store) TrimEvents(ctx context.Context, limit int) (int64, error) {
	if limit < 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM events
		WHERE seq NOT IN (
			SELECT seq FROM events
			ORDER BY seq DESC
			LIMIT ?
		)
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("trim events: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim events: rows affected: %w", err)
	}
	return removed, nil
}

// MergeUserUpdate merges fields into the stored user update and returns the
// merged record. Keys in fields replace existing keys; nested objects are
// replaced, not merged.
func (s *Store) MergeUserUpdate(ctx context.Context, fields ir.IRObject) (ir.IRObject, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("merge user update: begin tx: %w", err)
	}
	defer tx.Rollback()

	var payload string
	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT payload, seq FROM user_update WHERE id = 1
	`).Scan(&payload, &seq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("merge user update: read: %w", err)
	}

	merged, err := unmarshalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("merge user update: %w", err)
	}
	for k, v := range fields {
		merged[k] = ir.CloneValue(v)
	}

	out, err := marshalPayload(merged)
	if err != nil {
		return nil, fmt.Errorf("merge user update: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_update (id, payload, seq)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, seq = excluded.seq
	`, out, seq+1)
	if err != nil {
		return nil, fmt.Errorf("merge user update: write: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("merge user update: commit: %w", err)
	}

	return merged, nil
}

// SaveCriteria caches a raw criteria document, replacing any previous one,
// and returns its hash. The bytes are stored unmodified.
func (s *Store) SaveCriteria(ctx context.Context, document []byte, fetchedAt time.Time) (string, error) {
	hash := ir.DocumentHash(document)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO criteria_cache (id, document, hash, fetched_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			hash = excluded.hash,
			fetched_at = excluded.fetched_at
	`, document, hash, fetchedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("save criteria: %w", err)
	}
	return hash, nil
}

// SetConsent records whether the visitor allows events to be stored.
func (s *Store) SetConsent(ctx context.Context, consent bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor (id, consent)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET consent = excluded.consent
	`, consent)
	if err != nil {
		return fmt.Errorf("set consent: %w", err)
	}
	return nil
}

// RecordMatch stores the visitor's criteria match. Only the first match is
// kept: recorded is false when a match already exists, and the stored
// match is left unchanged.
func (s *Store) RecordMatch(ctx context.Context, criteriaID, userID string) (recorded bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor (id, matched_criteria_id, user_id)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			matched_criteria_id = excluded.matched_criteria_id,
			user_id = excluded.user_id
		WHERE visitor.matched_criteria_id IS NULL
	`, criteriaID, userID)
	if err != nil {
		return false, fmt.Errorf("record match: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record match: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Clear removes buffered events and the user update. The criteria cache,
// consent, and recorded match are kept.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("clear: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"events", "user_update"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear: commit: %w", err)
	}
	return nil
}
