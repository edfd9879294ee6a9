// Package tracker buffers visitor events and promotes the visitor once a
// criteria matches.
//
// Every tracked event is stamped with its type and timestamp and stored
// through internal/store; then the buffered events (plus the merged user
// update, last) are evaluated against the cached criteria document. The
// first match generates a visitor user id and is persisted. After that the
// visitor is known: tracking returns the recorded match without storing or
// evaluating anything.
//
// Events are dropped while tracking consent is not given. The buffer keeps
// only the newest EventThreshold events.
package tracker
