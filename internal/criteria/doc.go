// Package criteria models server-authored criteria documents and reads them
// from their JSON wire form.
//
// A criteria document lists candidate criteria in priority order:
//
//	{"criteriaSets": [{"criteriaId": "49", "name": "...", "searchQuery": {...}}]}
//
// Each searchQuery is a QueryNode tree. Inner nodes combine children with
// And, Or, or Not; leaves name an event type and carry a SearchCombo of
// FieldQuery predicates that are tested against one event at a time.
//
// READING IS LENIENT:
//
// ParseCriteria never fails. Entries without a searchQuery object or a
// criteriaId are skipped, and wrong-typed node members are ignored, so a
// malformed node survives parsing and simply never matches. Parse returns
// the same list plus the decode error, for callers that want diagnostics.
//
// VALIDATION:
//
// Validate walks a parsed tree and reports warnings (unknown combinators,
// unknown comparators, leaves without an event type, and so on). It is a
// pure function and has no effect on evaluation.
package criteria
