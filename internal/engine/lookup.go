package engine

import (
	"strings"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// pathQuery is a field query whose path is relative to the record it is
// currently being matched against.
type pathQuery struct {
	path  string
	query criteria.FieldQuery
}

// matchAll reports whether every query holds on record.
//
// A path is first looked up as a literal key. Otherwise it is split at the
// longest key prefix whose value is an object or array, and the remainder
// is matched inside that value. Queries descending into the same key are
// matched together, so queries that reach into an array of objects must
// all hold on one element. A path that does not resolve fails its query.
func matchAll(record ir.IRObject, queries []pathQuery) bool {
	var order []string
	groups := make(map[string][]pathQuery)

	for _, pq := range queries {
		if v, ok := record[pq.path]; ok {
			if !compareField(pq.query, v) {
				return false
			}
			continue
		}
		key, rest, ok := descend(record, pq.path)
		if !ok {
			return false
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], pathQuery{path: rest, query: pq.query})
	}

	for _, key := range order {
		if !matchNested(record[key], groups[key]) {
			return false
		}
	}
	return true
}

// matchNested matches queries inside an object, or inside any single
// object element of an array.
func matchNested(v ir.IRValue, queries []pathQuery) bool {
	switch val := v.(type) {
	case ir.IRObject:
		return matchAll(val, queries)
	case ir.IRArray:
		for _, elem := range val {
			if obj, ok := elem.(ir.IRObject); ok && matchAll(obj, queries) {
				return true
			}
		}
	}
	return false
}

// descend finds the longest dotted prefix of path that is a key of record
// holding an object or array.
func descend(record ir.IRObject, path string) (key, rest string, ok bool) {
	for i := strings.LastIndexByte(path, '.'); i > 0; i = strings.LastIndexByte(path[:i], '.') {
		switch record[path[:i]].(type) {
		case ir.IRObject, ir.IRArray:
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}

// resolves reports whether path names something in record.
func resolves(record ir.IRObject, path string) bool {
	if _, ok := record[path]; ok {
		return true
	}
	if key, rest, ok := descend(record, path); ok {
		switch val := record[key].(type) {
		case ir.IRObject:
			return resolves(val, rest)
		case ir.IRArray:
			for _, elem := range val {
				if obj, ok := elem.(ir.IRObject); ok && resolves(obj, rest) {
					return true
				}
			}
		}
	}
	return false
}

// eventPath maps a criteria field onto a path within event. Custom event
// fields may be written as "<eventName>.<field>"; the event name segment
// is dropped when the field does not otherwise resolve.
func eventPath(event ir.Event, field string) string {
	if resolves(event, field) {
		return field
	}
	if name, ok := event.GetString(ir.FieldEventName); ok && name != "" {
		if rest, found := strings.CutPrefix(field, name+"."); found && rest != "" {
			return rest
		}
	}
	return field
}

// itemField reports whether field addresses an item of a cart pseudo-event
// and returns the field with its prefix removed.
func itemField(field string) (string, bool) {
	if rest, ok := strings.CutPrefix(field, ir.UpdateCartItemPrefix); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(field, ir.PurchaseItemPrefix); ok {
		return rest, true
	}
	return field, false
}

// itemsOf returns the item records carried by event.
func itemsOf(event ir.Event) (ir.IRArray, bool) {
	for _, key := range []string{ir.PurchaseItemsKey, ir.UpdateCartItemsKey, ir.FieldItems} {
		if items, ok := event.GetArray(key); ok {
			return items, true
		}
	}
	return nil, false
}
