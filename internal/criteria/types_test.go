package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinatorCanonical(t *testing.T) {
	tests := []struct {
		in   Combinator
		want Combinator
		ok   bool
	}{
		{"And", CombinatorAnd, true},
		{"AND", CombinatorAnd, true},
		{"or", CombinatorOr, true},
		{"Not", CombinatorNot, true},
		{"Xor", "Xor", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, ok := tt.in.Canonical()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestComparatorCanonical(t *testing.T) {
	for _, c := range Comparators {
		got, ok := c.Canonical()
		assert.True(t, ok, c)
		assert.Equal(t, c, got)
	}

	got, ok := Comparator("DoesNotEquals").Canonical()
	assert.True(t, ok)
	assert.Equal(t, DoesNotEqual, got)

	_, ok = Comparator("equals").Canonical()
	assert.False(t, ok, "comparator names are case-sensitive")
}

func TestNodeShape(t *testing.T) {
	combo := &SearchCombo{Combinator: CombinatorAnd}

	tests := []struct {
		name       string
		node       QueryNode
		combinator bool
		leaf       bool
	}{
		{"combinator", QueryNode{Combinator: CombinatorAnd, SearchQueries: []QueryNode{}}, true, false},
		{"combinator without children", QueryNode{Combinator: CombinatorAnd}, false, false},
		{"children without combinator", QueryNode{SearchQueries: []QueryNode{}}, false, false},
		{"leaf", QueryNode{EventType: "user", SearchCombo: combo}, false, true},
		{"combinator wins over combo", QueryNode{Combinator: CombinatorOr, SearchQueries: []QueryNode{}, SearchCombo: combo}, true, false},
		{"empty", QueryNode{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.combinator, tt.node.IsCombinator())
			assert.Equal(t, tt.leaf, tt.node.IsLeaf())
		})
	}
}

func TestFieldQueryOperands(t *testing.T) {
	assert.Equal(t, []string{"x"}, FieldQuery{Value: "x"}.Operands())
	assert.Equal(t, []string{""}, FieldQuery{}.Operands())
	assert.Equal(t, []string{"a", "b"}, FieldQuery{Value: "x", Values: []string{"a", "b"}}.Operands())
}
