package criteria

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "count": 2,
  "criteriaSets": [
    {
      "criteriaId": "51",
      "name": "Contact Property",
      "createdAt": 1716561944428,
      "searchQuery": {
        "combinator": "And",
        "searchQueries": [
          {
            "dataType": "user",
            "minMatch": 2,
            "searchCombo": {
              "combinator": "Or",
              "searchQueries": [
                {"dataType": "user", "field": "country", "fieldType": "string", "comparatorType": "Equals", "value": "UK"},
                {"dataType": "user", "field": "color", "comparatorType": "Equals", "values": ["black", "white"]}
              ]
            }
          }
        ]
      }
    },
    {
      "criteriaId": 50,
      "searchQuery": {"dataType": "purchase", "searchCombo": {"combinator": "And", "searchQueries": []}}
    }
  ]
}`

func TestParse_DocumentOrderAndFields(t *testing.T) {
	list, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)
	require.Len(t, list, 2)

	first := list[0]
	assert.Equal(t, "51", first.ID)
	assert.Equal(t, "Contact Property", first.Name)
	assert.True(t, first.Query.IsCombinator())
	assert.Equal(t, CombinatorAnd, first.Query.Combinator)
	require.Len(t, first.Query.SearchQueries, 1)

	leaf := first.Query.SearchQueries[0]
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, "user", leaf.EventType)
	assert.Equal(t, 2, leaf.MinMatch)
	require.NotNil(t, leaf.SearchCombo)
	assert.Equal(t, CombinatorOr, leaf.SearchCombo.Combinator)
	require.Len(t, leaf.SearchCombo.SearchQueries, 2)

	country := leaf.SearchCombo.SearchQueries[0]
	assert.Equal(t, FieldQuery{
		Field:      "country",
		FieldType:  "string",
		Comparator: Equals,
		Value:      "UK",
		EventType:  "user",
	}, country)

	color := leaf.SearchCombo.SearchQueries[1]
	assert.Equal(t, []string{"black", "white"}, color.Values)
	assert.Equal(t, []string{"black", "white"}, color.Operands())

	// numeric ids are rendered in decimal
	assert.Equal(t, "50", list[1].ID)
	assert.True(t, list[1].Query.IsLeaf())
}

func TestParse_CriteriasAlias(t *testing.T) {
	list, err := Parse([]byte(`{"criterias": [{"criteriaId": "7", "searchQuery": {}}]}`))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "7", list[0].ID)
}

func TestParse_SkipsIncompleteEntries(t *testing.T) {
	doc := `{"criteriaSets": [
		{"searchQuery": {"combinator": "And", "searchQueries": []}},
		{"criteriaId": "1"},
		{"criteriaId": "2", "searchQuery": "not an object"},
		{"criteriaId": null, "searchQuery": {}},
		"not an entry",
		{"criteriaId": "3", "searchQuery": {}}
	]}`

	list, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0].ID)
}

func TestParse_DocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		is   error
	}{
		{"invalid json", `{"criteriaSets": [`, nil},
		{"array root", `[]`, ErrNotObject},
		{"no list", `{"count": 0}`, ErrNoCriteriaList},
		{"list wrong type", `{"criteriaSets": {}}`, ErrNoCriteriaList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.NotNil(t, list)
			assert.Empty(t, list)

			assert.Empty(t, ParseCriteria([]byte(tt.raw)))
		})
	}
}

func TestParse_LenientNodes(t *testing.T) {
	doc := `{"criteriaSets": [{"criteriaId": "9", "searchQuery": {
		"combinator": 5,
		"searchQueries": [7, {"dataType": "customEvent", "searchCombo": {"searchQueries": [
			{"field": "n", "comparatorType": "Equals", "value": 3.0},
			{"field": "b", "comparatorType": "Equals", "value": true},
			{"field": "x", "comparatorType": "IsSet"},
			"junk"
		]}}],
		"minMatch": "two"
	}}]}`

	list, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, list, 1)

	root := list[0].Query
	assert.Empty(t, root.Combinator)
	assert.False(t, root.IsCombinator())
	assert.False(t, root.IsLeaf())
	assert.Zero(t, root.MinMatch)

	require.Len(t, root.SearchQueries, 2)
	assert.Equal(t, QueryNode{}, root.SearchQueries[0])

	combo := root.SearchQueries[1].SearchCombo
	require.NotNil(t, combo)
	require.Len(t, combo.SearchQueries, 3)
	assert.Equal(t, "3", combo.SearchQueries[0].Value)
	assert.Equal(t, "true", combo.SearchQueries[1].Value)
	assert.Equal(t, "", combo.SearchQueries[2].Value)
}

func TestParse_EventTypeAlias(t *testing.T) {
	list := ParseCriteria([]byte(`{"criteriaSets": [{"criteriaId": "1", "searchQuery": {"eventType": "purchase", "searchCombo": {"searchQueries": []}}}]}`))
	require.Len(t, list, 1)
	assert.Equal(t, "purchase", list[0].Query.EventType)
}

func TestParse_EmptySearchQueriesIsCombinator(t *testing.T) {
	list := ParseCriteria([]byte(`{"criteriaSets": [{"criteriaId": "1", "searchQuery": {"combinator": "Or", "searchQueries": []}}]}`))
	require.Len(t, list, 1)
	assert.True(t, list[0].Query.IsCombinator())
	assert.NotNil(t, list[0].Query.SearchQueries)
	assert.Empty(t, list[0].Query.SearchQueries)
}

func TestQueryNodeUnmarshalJSON(t *testing.T) {
	var c Criteria
	err := json.Unmarshal([]byte(`{"criteriaId": "4", "searchQuery": {"combinator": "Not", "searchQueries": [{"dataType": "user", "searchCombo": {"combinator": "And", "searchQueries": []}}]}}`), &c)
	require.NoError(t, err)

	assert.Equal(t, "4", c.ID)
	assert.Equal(t, CombinatorNot, c.Query.Combinator)
	require.Len(t, c.Query.SearchQueries, 1)
	assert.True(t, c.Query.SearchQueries[0].IsLeaf())
}
