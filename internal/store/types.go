package store

import (
	"time"

	"github.com/roach88/criteria/internal/ir"
)

// StoredEvent is a buffered event with its position in the buffer.
type StoredEvent struct {
	ID    string
	Seq   int64
	Event ir.Event
}

// CachedCriteria is the last criteria document saved by SaveCriteria.
// Document holds the raw bytes as fetched; Hash is ir.DocumentHash of them.
type CachedCriteria struct {
	Document  []byte
	Hash      string
	FetchedAt time.Time
}

// MatchRecord is the visitor's recorded criteria match.
type MatchRecord struct {
	CriteriaID string
	UserID     string
}

// Events returns the event records in order.
func Events(stored []StoredEvent) []ir.Event {
	events := make([]ir.Event, len(stored))
	for i, se := range stored {
		events[i] = se.Event
	}
	return events
}
