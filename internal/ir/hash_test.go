package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventIDDeterminism(t *testing.T) {
	event := Event{
		FieldEventType: IRString(EventTypeCustom),
		FieldEventName: IRString("button-clicked"),
		"price":        IRFloat(9.99),
	}

	id1, err := EventID(event, 1)
	require.NoError(t, err)
	id2, err := EventID(event.Clone(), 1)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
	_, err = hex.DecodeString(id1)
	assert.NoError(t, err)
}

func TestEventIDChangesWithSeqAndContent(t *testing.T) {
	event := Event{FieldEventType: IRString(EventTypeCustom)}

	base := MustEventID(event, 1)
	assert.NotEqual(t, base, MustEventID(event, 2))
	assert.NotEqual(t, base, MustEventID(Event{FieldEventType: IRString(EventTypePurchase)}, 1))
}

func TestEventIDRejectsNonFinite(t *testing.T) {
	_, err := EventID(Event{"x": IRFloat(nan())}, 1)
	assert.Error(t, err)

	assert.Panics(t, func() { MustEventID(Event{"x": IRFloat(nan())}, 1) })
}

func TestDocumentHashIgnoresFormatting(t *testing.T) {
	a := DocumentHash([]byte(`{"criteriaSets":[],"count":0}`))
	b := DocumentHash([]byte("{\n  \"count\": 0,\n  \"criteriaSets\": []\n}"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, DocumentHash([]byte(`{"count":1}`)))
}

func TestDocumentHashInvalidJSON(t *testing.T) {
	a := DocumentHash([]byte("not json"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, DocumentHash([]byte("not json")))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainEvent, data), hashWithDomain(DomainDocument, data))
}
