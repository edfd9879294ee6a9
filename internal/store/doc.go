// Package store provides SQLite-backed local persistence for the visitor
// event buffer.
//
// The store holds:
//   - Events: buffered visitor events, append-only until trimmed
//   - User update: one merged user-profile record
//   - Criteria cache: the last fetched criteria document and its hash
//   - Visitor: tracking consent and the recorded match, if any
//
// # Ordering
//
// Events are ordered by seq INTEGER (insertion order), never by their
// timestamps. Every event query uses ORDER BY seq ASC, id ASC COLLATE
// BINARY so repeated reads return identical lists.
//
// # Identity
//
// Event IDs are content addressed via ir.EventID (RFC 8785 canonical
// JSON, SHA-256, domain separated) over the payload and its seq.
// Appending the same record twice at the same seq is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// The store persists raw inputs only. It never evaluates criteria.
package store
