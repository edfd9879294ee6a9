package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

func query(c criteria.Comparator, value string) criteria.FieldQuery {
	return criteria.FieldQuery{Field: "f", Comparator: c, Value: value}
}

func TestCompareField(t *testing.T) {
	tests := []struct {
		name   string
		q      criteria.FieldQuery
		stored ir.IRValue
		want   bool
	}{
		// numeric ordering
		{"greater than int", query(criteria.GreaterThan, "3"), ir.IRInt(5), true},
		{"less or equal same", query(criteria.LessThanOrEqualTo, "3"), ir.IRInt(3), true},
		{"greater than not a number", query(criteria.GreaterThan, "notanumber"), ir.IRInt(3), false},
		{"less than float", query(criteria.LessThan, "15"), ir.IRFloat(14.5), true},
		{"greater or equal numeric string", query(criteria.GreaterThanOrEqualTo, "20"), ir.IRString("20"), true},
		{"greater than non numeric string", query(criteria.GreaterThan, "1"), ir.IRString("abc"), false},
		{"greater than bool", query(criteria.GreaterThan, "0"), ir.IRBool(true), false},

		// equality dispatch
		{"equals float", query(criteria.Equals, "19.99"), ir.IRFloat(19.99), true},
		{"equals float normalized", query(criteria.Equals, "10.0"), ir.IRFloat(10), true},
		{"equals int", query(criteria.Equals, "3"), ir.IRInt(3), true},
		{"equals int normalized", query(criteria.Equals, "3.0"), ir.IRInt(3), true},
		{"equals int fraction", query(criteria.Equals, "3.5"), ir.IRInt(3), false},
		{"equals bool", query(criteria.Equals, "true"), ir.IRBool(true), true},
		{"equals bool case", query(criteria.Equals, "TRUE"), ir.IRBool(true), false},
		{"equals string", query(criteria.Equals, "Chaina"), ir.IRString("Chaina"), true},
		{"equals string case", query(criteria.Equals, "chaina"), ir.IRString("Chaina"), false},
		// the query value is normalized before comparing, even against text
		{"equals numeric text", query(criteria.Equals, "10.0"), ir.IRString("10.0"), false},
		{"equals null", query(criteria.Equals, ""), ir.IRNull{}, false},
		{"equals object", query(criteria.Equals, "x"), ir.IRObject{"x": ir.IRInt(1)}, false},
		{"does not equal", query(criteria.DoesNotEqual, "3"), ir.IRInt(30), true},
		{"does not equals alias", query("DoesNotEquals", "3"), ir.IRInt(3), false},

		// set
		{"is set empty string", query(criteria.IsSet, ""), ir.IRString(""), false},
		{"is set string", query(criteria.IsSet, ""), ir.IRString("x"), true},
		{"is set zero", query(criteria.IsSet, ""), ir.IRInt(0), true},
		{"is set false", query(criteria.IsSet, ""), ir.IRBool(false), true},
		{"is set empty array", query(criteria.IsSet, ""), ir.IRArray{}, false},
		{"is set empty object", query(criteria.IsSet, ""), ir.IRObject{}, false},
		{"is set NaN", query(criteria.IsSet, ""), ir.IRFloat(math.NaN()), false},
		{"is set null", query(criteria.IsSet, ""), ir.IRNull{}, false},
		{"is set ignores value", query(criteria.IsSet, "anything"), ir.IRInt(1), true},

		// text
		{"contains", query(criteria.Contains, "wan"), ir.IRString("Taiwan"), true},
		{"contains miss", query(criteria.Contains, "wan"), ir.IRString("ina"), false},
		{"contains number", query(criteria.Contains, "1"), ir.IRInt(10), false},
		{"contains array member", query(criteria.Contains, "Mazda"), ir.IRArray{ir.IRString("Honda"), ir.IRString("Mazda")}, true},
		{"contains array substring", query(criteria.Contains, "Maz"), ir.IRArray{ir.IRString("Mazda")}, false},
		{"starts with", query(criteria.StartsWith, "T"), ir.IRString("Taiwan"), true},
		{"starts with miss", query(criteria.StartsWith, "T"), ir.IRString("Chaina"), false},
		{"regex", query(criteria.MatchesRegex, "^T.*iwa.*n$"), ir.IRString("Taiwan"), true},
		{"regex unanchored", query(criteria.MatchesRegex, "iwa"), ir.IRString("Taiwan"), true},
		{"regex miss", query(criteria.MatchesRegex, "^T.*iwa.*n$"), ir.IRString("Chaina"), false},
		{"regex invalid", query(criteria.MatchesRegex, "("), ir.IRString("("), false},
		{"regex non string", query(criteria.MatchesRegex, "5"), ir.IRInt(5), false},

		// arrays of scalars
		{"array any greater", query(criteria.GreaterThan, "4"), ir.IRArray{ir.IRInt(1), ir.IRInt(5)}, true},
		{"array any equals", query(criteria.Equals, "b"), ir.IRArray{ir.IRString("a"), ir.IRString("b")}, true},
		{"array does not equal member", query(criteria.DoesNotEqual, "b"), ir.IRArray{ir.IRString("a"), ir.IRString("b")}, false},
		{"array starts with", query(criteria.StartsWith, "ke"), ir.IRArray{ir.IRString("mouse"), ir.IRString("keyboard")}, true},

		// value lists
		{"values any", criteria.FieldQuery{Comparator: criteria.Equals, Values: []string{"black", "white"}}, ir.IRString("white"), true},
		{"values none", criteria.FieldQuery{Comparator: criteria.Equals, Values: []string{"black", "white"}}, ir.IRString("red"), false},
		{"values not equal none", criteria.FieldQuery{Comparator: criteria.DoesNotEqual, Values: []string{"black", "white"}}, ir.IRString("red"), true},
		{"values not equal one", criteria.FieldQuery{Comparator: criteria.DoesNotEqual, Values: []string{"black", "white"}}, ir.IRString("black"), false},

		{"unknown comparator", query("Near", "1"), ir.IRInt(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareField(tt.q, tt.stored))
		})
	}
}

func TestCompareField_EqualsAndDoesNotEqualAreComplements(t *testing.T) {
	stored := []ir.IRValue{
		ir.IRNull{},
		ir.IRString(""),
		ir.IRString("3"),
		ir.IRString("abc"),
		ir.IRInt(3),
		ir.IRFloat(3),
		ir.IRFloat(2.5),
		ir.IRBool(true),
		ir.IRArray{ir.IRString("3")},
		ir.IRObject{"a": ir.IRInt(3)},
	}
	operands := []string{"", "3", "3.0", "2.50", "true", "abc", "x"}

	for _, s := range stored {
		for _, op := range operands {
			eq := compareField(query(criteria.Equals, op), s)
			ne := compareField(query(criteria.DoesNotEqual, op), s)
			assert.NotEqual(t, eq, ne, "stored=%#v operand=%q", s, op)
		}
	}
}

func TestNormalizeOperand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3.0", "3"},
		{"2.50", "2.5"},
		{"10", "10"},
		{"1e3", "1000"},
		{"0.000001", "0.000001"},
		{"4.67", "4.67"},
		{"abc", "abc"},
		{"", ""},
		{"NaN", "NaN"},
		{"Inf", "Inf"},
		{" 3", " 3"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeOperand(tt.in))
		})
	}
}
