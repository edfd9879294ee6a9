package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// mustEvents decodes a JSON array of events.
func mustEvents(t *testing.T, data string) []ir.Event {
	t.Helper()
	var events []ir.Event
	require.NoError(t, json.Unmarshal([]byte(data), &events))
	return events
}

// mustDocument reads a criteria document from testdata.
func mustDocument(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return raw
}

func eq(field, value string) criteria.FieldQuery {
	return criteria.FieldQuery{Field: field, Comparator: criteria.Equals, Value: value}
}

func leafNode(eventType string, queries ...criteria.FieldQuery) criteria.QueryNode {
	return criteria.QueryNode{
		EventType:   eventType,
		SearchCombo: &criteria.SearchCombo{Combinator: criteria.CombinatorAnd, SearchQueries: queries},
	}
}

func combine(c criteria.Combinator, children ...criteria.QueryNode) criteria.QueryNode {
	if children == nil {
		children = []criteria.QueryNode{}
	}
	return criteria.QueryNode{Combinator: c, SearchQueries: children}
}

func andNode(children ...criteria.QueryNode) criteria.QueryNode {
	return combine(criteria.CombinatorAnd, children...)
}

func orNode(children ...criteria.QueryNode) criteria.QueryNode {
	return combine(criteria.CombinatorOr, children...)
}

func notNode(children ...criteria.QueryNode) criteria.QueryNode {
	return combine(criteria.CombinatorNot, children...)
}

func customEvent(fields ...ir.IRPair) ir.Event {
	ev := ir.NewIRObjectFromPairs(fields...)
	ev[ir.FieldEventType] = ir.IRString(ir.EventTypeCustom)
	return ev
}
