package engine

import (
	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// EvaluateTree reports whether node holds over already normalized events.
func EvaluateTree(node criteria.QueryNode, events []ir.Event) bool {
	w := walk{events: events}
	return w.node(node, false)
}

// walk holds the inputs of one tree evaluation. Nodes are passed by value
// and never modified; per-node state (not mode, match counts) lives on the
// call stack.
type walk struct {
	events []ir.Event
}

// node evaluates n. negated is set only for the direct children of a Not.
func (w walk) node(n criteria.QueryNode, negated bool) bool {
	if n.IsCombinator() {
		switch c, _ := n.Combinator.Canonical(); c {
		case criteria.CombinatorAnd:
			for _, child := range n.SearchQueries {
				if !w.node(child, false) {
					return false
				}
			}
			return true

		case criteria.CombinatorOr:
			for _, child := range n.SearchQueries {
				if w.node(child, false) {
					return true
				}
			}
			return false

		case criteria.CombinatorNot:
			for _, child := range n.SearchQueries {
				if w.node(child, true) {
					return false
				}
			}
			return true
		}
		// Unknown combinators fall through to leaf handling.
	}

	if n.SearchCombo != nil {
		return w.leaf(n, negated)
	}
	return false
}

// leaf scans events of the leaf's type in order.
//
// The leaf holds once MinMatch events (at least one) have matched; matches
// need not be consecutive. In not mode a match on any event but the last
// keeps scanning, and the first eligible event that does not match ends
// the scan with false.
func (w walk) leaf(n criteria.QueryNode, negated bool) bool {
	if n.EventType == "" {
		return false
	}

	required := max(n.MinMatch, 1)
	matched := 0
	last := len(w.events) - 1

	for i, ev := range w.events {
		if ir.EventTypeOf(ev) != n.EventType || ev.Has(ir.FieldCriteriaID) {
			continue
		}

		if !matchCombo(ev, n.SearchCombo) {
			if negated {
				return false
			}
			continue
		}

		matched++
		if matched < required {
			continue
		}
		if negated && i != last {
			continue
		}
		return true
	}
	return false
}

// matchCombo tests one event against a leaf's field queries.
//
// Item-prefixed queries are matched against the event's item records and
// the rest against the event itself. Under And (the default for anything
// but Or), one item must satisfy every item query it has fields for, and
// the event must satisfy every other query; an item query on an event
// without items fails. Under Or, any single query holding on any item or on
// the event is enough.
func matchCombo(event ir.Event, combo *criteria.SearchCombo) bool {
	var itemQueries, eventQueries []pathQuery
	for _, q := range combo.SearchQueries {
		if field, ok := itemField(q.Field); ok {
			itemQueries = append(itemQueries, pathQuery{path: field, query: q})
			continue
		}
		eventQueries = append(eventQueries, pathQuery{path: eventPath(event, q.Field), query: q})
	}
	items, hasItems := itemsOf(event)

	if c, _ := combo.Combinator.Canonical(); c == criteria.CombinatorOr {
		if hasItems {
			for _, pq := range itemQueries {
				for _, it := range items {
					if obj, ok := it.(ir.IRObject); ok && matchAll(obj, []pathQuery{pq}) {
						return true
					}
				}
			}
		}
		for _, pq := range eventQueries {
			if matchAll(event, []pathQuery{pq}) {
				return true
			}
		}
		return false
	}

	if len(itemQueries) > 0 {
		if !hasItems || !anyItemMatches(items, itemQueries) {
			return false
		}
	}
	return matchAll(event, eventQueries)
}

// anyItemMatches reports whether some item satisfies the item queries
// whose fields it has. An item with none of the queried fields does not
// match.
func anyItemMatches(items ir.IRArray, queries []pathQuery) bool {
	for _, it := range items {
		obj, ok := it.(ir.IRObject)
		if !ok {
			continue
		}
		present := make([]pathQuery, 0, len(queries))
		for _, pq := range queries {
			if resolves(obj, pq.path) {
				present = append(present, pq)
			}
		}
		if len(present) > 0 && matchAll(obj, present) {
			return true
		}
	}
	return false
}
