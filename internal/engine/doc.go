// Package engine decides whether a visitor's buffered events satisfy any
// criteria of a criteria document.
//
// The engine is synchronous and side-effect free. One evaluation reads a
// criteria list and an event list, and returns the id of the first
// criteria whose query tree holds:
//
//	[raw events] → Normalize → [pseudo-events + other events]
//	                              ↓
//	[criteria] ─── for each, in document order ──→ EvaluateTree → first true wins
//
// NORMALIZATION:
//
// Normalize flattens every event's dataFields into the event (existing
// top-level keys win) and rewrites purchase and cart-update events into
// pseudo-events whose items are addressed with a field prefix:
//
//	shoppingCartItems.<field>                   purchase items
//	updateCart.updatedShoppingCartItems.<field> cart-update items
//
// Cart-update pseudo-events are custom events named "updateCart".
// Pseudo-events come first, then all other events, each group in original
// order. Inputs are never mutated.
//
// EVALUATION:
//
// And and Or short-circuit; an empty And holds and an empty Or does not.
// Not evaluates each direct child in "not mode" and fails if any child
// holds. A leaf scans the events of its type in order and holds once
// minMatch of them have matched its search combo. In not mode the scan
// keeps going after a match on any event but the last, and stops with
// false at the first eligible event that does not match.
//
// Per-walk state (not mode, the match counter) lives in the walk itself;
// criteria nodes are never modified, so repeated evaluations of the same
// document are independent.
//
// FAIL CLOSED:
//
// Nothing in this package returns an error. Missing fields, wrong types,
// unparsable numbers, invalid patterns, and malformed nodes all make the
// affected comparison (or node) false.
package engine
