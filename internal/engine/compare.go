package engine

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// compareField applies the query's comparator to a stored value.
//
// Every comparator except IsSet sees the query value normalized by
// normalizeOperand. When the query lists several values the comparison
// holds if it holds for any of them; DoesNotEqual is always the negation
// of Equals over the same values.
func compareField(q criteria.FieldQuery, stored ir.IRValue) bool {
	comparator, ok := q.Comparator.Canonical()
	if !ok {
		return false
	}

	switch comparator {
	case criteria.IsSet:
		return isSet(stored)
	case criteria.DoesNotEqual:
		return !anyOperand(q, stored, criteria.Equals)
	default:
		return anyOperand(q, stored, comparator)
	}
}

func anyOperand(q criteria.FieldQuery, stored ir.IRValue, comparator criteria.Comparator) bool {
	for _, operand := range q.Operands() {
		if compareValue(comparator, stored, normalizeOperand(operand)) {
			return true
		}
	}
	return false
}

// compareValue evaluates one comparator against one normalized operand.
// Array values match when any element matches, except for Contains, which
// tests exact membership among string elements.
func compareValue(comparator criteria.Comparator, stored ir.IRValue, operand string) bool {
	if arr, ok := stored.(ir.IRArray); ok {
		if comparator == criteria.Contains {
			return containsString(arr, operand)
		}
		for _, elem := range arr {
			if _, nested := elem.(ir.IRArray); nested {
				continue
			}
			if compareValue(comparator, elem, operand) {
				return true
			}
		}
		return false
	}

	switch comparator {
	case criteria.Equals:
		return equalValue(stored, operand)
	case criteria.GreaterThan:
		return compareNumeric(stored, operand, func(a, b float64) bool { return a > b })
	case criteria.LessThan:
		return compareNumeric(stored, operand, func(a, b float64) bool { return a < b })
	case criteria.GreaterThanOrEqualTo:
		return compareNumeric(stored, operand, func(a, b float64) bool { return a >= b })
	case criteria.LessThanOrEqualTo:
		return compareNumeric(stored, operand, func(a, b float64) bool { return a <= b })
	case criteria.Contains:
		s, ok := stored.(ir.IRString)
		return ok && strings.Contains(string(s), operand)
	case criteria.StartsWith:
		s, ok := stored.(ir.IRString)
		return ok && strings.HasPrefix(string(s), operand)
	case criteria.MatchesRegex:
		return matchesRegex(stored, operand)
	default:
		return false
	}
}

// normalizeOperand renders numeric query values in their shortest form
// ("3.0" → "3", "2.50" → "2.5"). Anything else is returned unchanged.
func normalizeOperand(value string) string {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return value
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// equalValue compares by the stored value's type.
func equalValue(stored ir.IRValue, operand string) bool {
	switch val := stored.(type) {
	case ir.IRFloat:
		f, err := strconv.ParseFloat(operand, 64)
		return err == nil && float64(val) == f
	case ir.IRInt:
		n, err := strconv.ParseInt(operand, 10, 64)
		return err == nil && int64(val) == n
	case ir.IRBool:
		b, ok := parseBool(operand)
		return ok && bool(val) == b
	case ir.IRString:
		return string(val) == operand
	default:
		return false
	}
}

// parseBool accepts only the literals "true" and "false".
func parseBool(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func compareNumeric(stored ir.IRValue, operand string, op func(a, b float64) bool) bool {
	want, err := strconv.ParseFloat(operand, 64)
	if err != nil {
		return false
	}
	have, ok := asFloat(stored)
	if !ok {
		return false
	}
	return op(have, want)
}

// asFloat coerces numbers and numeric strings.
func asFloat(v ir.IRValue) (float64, bool) {
	switch val := v.(type) {
	case ir.IRFloat:
		return float64(val), true
	case ir.IRInt:
		return float64(val), true
	case ir.IRString:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func containsString(arr ir.IRArray, operand string) bool {
	for _, elem := range arr {
		if s, ok := elem.(ir.IRString); ok && string(s) == operand {
			return true
		}
	}
	return false
}

// matchesRegex searches a string value for the pattern anywhere in it.
func matchesRegex(stored ir.IRValue, pattern string) bool {
	s, ok := stored.(ir.IRString)
	if !ok {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(string(s))
}

// isSet reports whether a stored value carries information. Numbers
// (other than NaN) and booleans are always set, including zero and false.
func isSet(v ir.IRValue) bool {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return false
	case ir.IRString:
		return val != ""
	case ir.IRArray:
		return len(val) > 0
	case ir.IRObject:
		return len(val) > 0
	case ir.IRFloat:
		return !math.IsNaN(float64(val))
	default:
		return true
	}
}
