package criteria

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/criteria/internal/ir"
)

// Document keys.
const (
	keyCriteriaSets  = "criteriaSets"
	keyCriterias     = "criterias"
	keyCriteriaID    = "criteriaId"
	keyName          = "name"
	keySearchQuery   = "searchQuery"
	keyCombinator    = "combinator"
	keySearchQueries = "searchQueries"
	keySearchCombo   = "searchCombo"
	keyMinMatch      = "minMatch"
	keyField         = "field"
	keyFieldType     = "fieldType"
	keyComparator    = "comparatorType"
	keyValue         = "value"
	keyValues        = "values"
)

// ErrNotObject is returned when the document root is not a JSON object.
var ErrNotObject = errors.New("criteria document is not a JSON object")

// ErrNoCriteriaList is returned when the document has no criteria array.
var ErrNoCriteriaList = errors.New("criteria document has no criteriaSets array")

// ParseCriteria reads a criteria document and returns its usable entries
// in document order. It never fails: an unreadable document yields an
// empty list.
func ParseCriteria(raw []byte) []Criteria {
	list, _ := Parse(raw)
	return list
}

// Parse reads a criteria document like ParseCriteria and also reports why
// the document as a whole could not be read. Skipped entries are not
// errors. The returned list is never nil.
func Parse(raw []byte) ([]Criteria, error) {
	list := []Criteria{}

	root, err := ir.UnmarshalIRValue(raw)
	if err != nil {
		return list, fmt.Errorf("decode criteria document: %w", err)
	}
	doc, ok := root.(ir.IRObject)
	if !ok {
		return list, ErrNotObject
	}
	return FromObject(doc)
}

// FromObject reads an already-decoded criteria document.
func FromObject(doc ir.IRObject) ([]Criteria, error) {
	list := []Criteria{}

	entries, ok := doc.GetArray(keyCriteriaSets)
	if !ok {
		entries, ok = doc.GetArray(keyCriterias)
	}
	if !ok {
		return list, ErrNoCriteriaList
	}

	for _, entry := range entries {
		obj, ok := entry.(ir.IRObject)
		if !ok {
			continue
		}
		c, ok := criteriaFromObject(obj)
		if !ok {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

func criteriaFromObject(obj ir.IRObject) (Criteria, bool) {
	query, ok := obj.GetObject(keySearchQuery)
	if !ok {
		return Criteria{}, false
	}
	id, ok := scalarText(obj[keyCriteriaID])
	if !ok {
		return Criteria{}, false
	}
	name, _ := obj.GetString(keyName)
	return Criteria{
		ID:    id,
		Name:  name,
		Query: nodeFromObject(query),
	}, true
}

// nodeFromObject builds a QueryNode, ignoring members of the wrong type.
func nodeFromObject(obj ir.IRObject) QueryNode {
	var n QueryNode

	if s, ok := obj.GetString(keyCombinator); ok {
		n.Combinator = Combinator(s)
	}
	if children, ok := obj.GetArray(keySearchQueries); ok {
		n.SearchQueries = make([]QueryNode, 0, len(children))
		for _, child := range children {
			childObj, _ := child.(ir.IRObject)
			n.SearchQueries = append(n.SearchQueries, nodeFromObject(childObj))
		}
	}
	n.EventType = ir.EventTypeOf(obj)
	if combo, ok := obj.GetObject(keySearchCombo); ok {
		sc := comboFromObject(combo)
		n.SearchCombo = &sc
	}
	if m, ok := intValue(obj[keyMinMatch]); ok {
		n.MinMatch = m
	}
	return n
}

func comboFromObject(obj ir.IRObject) SearchCombo {
	var sc SearchCombo
	if s, ok := obj.GetString(keyCombinator); ok {
		sc.Combinator = Combinator(s)
	}
	queries, _ := obj.GetArray(keySearchQueries)
	sc.SearchQueries = make([]FieldQuery, 0, len(queries))
	for _, q := range queries {
		if qObj, ok := q.(ir.IRObject); ok {
			sc.SearchQueries = append(sc.SearchQueries, fieldQueryFromObject(qObj))
		}
	}
	return sc
}

func fieldQueryFromObject(obj ir.IRObject) FieldQuery {
	var q FieldQuery
	q.Field, _ = obj.GetString(keyField)
	q.FieldType, _ = obj.GetString(keyFieldType)
	if s, ok := obj.GetString(keyComparator); ok {
		q.Comparator = Comparator(s)
	}
	q.Value, _ = scalarText(obj[keyValue])
	if values, ok := obj.GetArray(keyValues); ok {
		for _, v := range values {
			if s, ok := scalarText(v); ok {
				q.Values = append(q.Values, s)
			}
		}
	}
	q.EventType = ir.EventTypeOf(obj)
	return q
}

// scalarText renders a string, number, or bool as text. Other values
// (including null) are not text.
func scalarText(v ir.IRValue) (string, bool) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), true
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10), true
	case ir.IRFloat:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case ir.IRBool:
		return strconv.FormatBool(bool(val)), true
	default:
		return "", false
	}
}

// intValue accepts integer numbers and integral floats.
func intValue(v ir.IRValue) (int, bool) {
	switch val := v.(type) {
	case ir.IRInt:
		return int(val), true
	case ir.IRFloat:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
			return int(f), true
		}
	}
	return 0, false
}

// UnmarshalJSON decodes a query node leniently.
func (n *QueryNode) UnmarshalJSON(data []byte) error {
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	obj, _ := v.(ir.IRObject)
	*n = nodeFromObject(obj)
	return nil
}
