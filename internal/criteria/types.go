package criteria

import "strings"

// Criteria is one candidate entry of a criteria document.
type Criteria struct {
	ID    string    `json:"criteriaId"`
	Name  string    `json:"name,omitempty"`
	Query QueryNode `json:"searchQuery"`
}

// Combinator joins child queries. The wire spelling is "And", "Or", "Not";
// other casings are accepted on read.
type Combinator string

const (
	CombinatorAnd Combinator = "And"
	CombinatorOr  Combinator = "Or"
	CombinatorNot Combinator = "Not"
)

// Canonical returns the canonical spelling of c and whether it is known.
func (c Combinator) Canonical() (Combinator, bool) {
	switch strings.ToLower(string(c)) {
	case "and":
		return CombinatorAnd, true
	case "or":
		return CombinatorOr, true
	case "not":
		return CombinatorNot, true
	default:
		return c, false
	}
}

// Comparator names a field-level comparison.
type Comparator string

const (
	Equals               Comparator = "Equals"
	DoesNotEqual         Comparator = "DoesNotEqual"
	IsSet                Comparator = "IsSet"
	GreaterThan          Comparator = "GreaterThan"
	LessThan             Comparator = "LessThan"
	GreaterThanOrEqualTo Comparator = "GreaterThanOrEqualTo"
	LessThanOrEqualTo    Comparator = "LessThanOrEqualTo"
	Contains             Comparator = "Contains"
	StartsWith           Comparator = "StartsWith"
	MatchesRegex         Comparator = "MatchesRegex"
)

// doesNotEqualsAlias is the legacy spelling still sent by older documents.
const doesNotEqualsAlias Comparator = "DoesNotEquals"

// Comparators lists the known comparators in declaration order.
var Comparators = []Comparator{
	Equals, DoesNotEqual, IsSet,
	GreaterThan, LessThan, GreaterThanOrEqualTo, LessThanOrEqualTo,
	Contains, StartsWith, MatchesRegex,
}

// Canonical returns the canonical spelling of c and whether it is known.
// Comparator names are case-sensitive.
func (c Comparator) Canonical() (Comparator, bool) {
	if c == doesNotEqualsAlias {
		return DoesNotEqual, true
	}
	for _, known := range Comparators {
		if c == known {
			return c, true
		}
	}
	return c, false
}

// QueryNode is one node of a criteria query tree.
//
// A node is a combinator node when Combinator is set and SearchQueries is
// non-nil (an empty, non-nil slice is a combinator node with no children).
// Otherwise a node with a SearchCombo is a leaf. A node that is neither
// never matches.
type QueryNode struct {
	Combinator    Combinator   `json:"combinator,omitempty"`
	SearchQueries []QueryNode  `json:"searchQueries,omitempty"`
	EventType     string       `json:"dataType,omitempty"`
	SearchCombo   *SearchCombo `json:"searchCombo,omitempty"`
	MinMatch      int          `json:"minMatch,omitempty"`
}

// IsCombinator reports whether n is a combinator node.
func (n QueryNode) IsCombinator() bool {
	return n.Combinator != "" && n.SearchQueries != nil
}

// IsLeaf reports whether n is a leaf (has a search combo and is not a
// combinator node).
func (n QueryNode) IsLeaf() bool {
	return !n.IsCombinator() && n.SearchCombo != nil
}

// SearchCombo is the field-level predicate list of a leaf.
type SearchCombo struct {
	Combinator    Combinator   `json:"combinator,omitempty"`
	SearchQueries []FieldQuery `json:"searchQueries"`
}

// FieldQuery tests one event (or item) field.
//
// Value is always text; numeric comparators parse it. When Values is
// non-empty the comparison holds if it holds for any listed value, and
// DoesNotEqual holds only if the stored value equals none of them.
type FieldQuery struct {
	Field      string     `json:"field"`
	FieldType  string     `json:"fieldType,omitempty"`
	Comparator Comparator `json:"comparatorType"`
	Value      string     `json:"value"`
	Values     []string   `json:"values,omitempty"`
	EventType  string     `json:"dataType,omitempty"`
}

// Operands returns the values the field is compared against.
func (q FieldQuery) Operands() []string {
	if len(q.Values) > 0 {
		return q.Values
	}
	return []string{q.Value}
}
