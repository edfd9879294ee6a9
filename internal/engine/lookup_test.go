package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/criteria/internal/ir"
)

func TestDescend(t *testing.T) {
	record := mustEvents(t, `[{
		"a": {"b": 1},
		"a.b": {"c": 2},
		"list": [1, 2],
		"scalar.x": 3,
		"scalar": "s"
	}]`)[0]

	tests := []struct {
		path     string
		wantKey  string
		wantRest string
		wantOK   bool
	}{
		{"a.b.c", "a.b", "c", true},
		{"a.x", "a", "x", true},
		{"list.y", "list", "y", true},
		{"scalar.x.y", "", "", false},
		{"scalar.y", "", "", false},
		{"missing.y", "", "", false},
		{"nodots", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			key, rest, ok := descend(record, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestResolves(t *testing.T) {
	record := mustEvents(t, `[{
		"top": null,
		"obj": {"inner": {"leaf": true}},
		"arr": [{"x": 1}, {"y": 2}, 3]
	}]`)[0]

	assert.True(t, resolves(record, "top"), "present with null value")
	assert.True(t, resolves(record, "obj.inner.leaf"))
	assert.True(t, resolves(record, "arr.y"))
	assert.False(t, resolves(record, "arr.z"))
	assert.False(t, resolves(record, "obj.inner.other"))
	assert.False(t, resolves(record, "nothing"))
}

func TestEventPath(t *testing.T) {
	event := ir.Event{
		ir.FieldEventName: ir.IRString("signup"),
		"plan":            ir.IRString("pro"),
		"signup.source":   ir.IRString("ad"),
	}

	assert.Equal(t, "plan", eventPath(event, "plan"))
	assert.Equal(t, "plan", eventPath(event, "signup.plan"))
	assert.Equal(t, "signup.source", eventPath(event, "signup.source"), "literal key wins")
	assert.Equal(t, "other.plan", eventPath(event, "other.plan"))
	assert.Equal(t, "signup.", eventPath(event, "signup."))

	unnamed := ir.Event{"plan": ir.IRString("pro")}
	assert.Equal(t, "x.plan", eventPath(unnamed, "x.plan"))
}

func TestItemField(t *testing.T) {
	tests := []struct {
		field    string
		want     string
		wantItem bool
	}{
		{"shoppingCartItems.price", "price", true},
		{"updateCart.updatedShoppingCartItems.quantity", "quantity", true},
		{"shoppingCartItems.dataFields.color", "dataFields.color", true},
		{"shoppingCartItems", "shoppingCartItems", false},
		{"total", "total", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := itemField(tt.field)
			assert.Equal(t, tt.wantItem, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestItemsOf(t *testing.T) {
	purchase := ir.Event{ir.PurchaseItemsKey: ir.IRArray{ir.IRObject{}}}
	cart := ir.Event{ir.UpdateCartItemsKey: ir.IRArray{}}
	raw := ir.Event{ir.FieldItems: ir.IRArray{ir.IRObject{}, ir.IRObject{}}}

	items, ok := itemsOf(purchase)
	assert.True(t, ok)
	assert.Len(t, items, 1)

	items, ok = itemsOf(cart)
	assert.True(t, ok)
	assert.Empty(t, items)

	items, ok = itemsOf(raw)
	assert.True(t, ok)
	assert.Len(t, items, 2)

	_, ok = itemsOf(ir.Event{ir.FieldItems: ir.IRString("nope")})
	assert.False(t, ok)
}

func TestMatchAll(t *testing.T) {
	record := mustEvents(t, `[{
		"name": "lamp",
		"rooms": [
			{"kind": "kitchen", "size": 10},
			{"kind": "bedroom", "size": 20}
		],
		"owner": {"name": "ada", "tags": ["admin", "ops"]}
	}]`)[0]

	tests := []struct {
		name    string
		queries []pathQuery
		want    bool
	}{
		{"no queries", nil, true},
		{"flat", []pathQuery{{"name", eq("name", "lamp")}}, true},
		{"flat mismatch", []pathQuery{{"name", eq("name", "desk")}}, false},
		{"nested object", []pathQuery{{"owner.name", eq("owner.name", "ada")}}, true},
		{"array leaf", []pathQuery{{"owner.tags", eq("owner.tags", "ops")}}, true},
		{"same element", []pathQuery{
			{"rooms.kind", eq("rooms.kind", "bedroom")},
			{"rooms.size", eq("rooms.size", "20")},
		}, true},
		{"split elements", []pathQuery{
			{"rooms.kind", eq("rooms.kind", "bedroom")},
			{"rooms.size", eq("rooms.size", "10")},
		}, false},
		{"unresolved", []pathQuery{{"rooms.color", eq("rooms.color", "red")}}, false},
		{"missing", []pathQuery{{"price", eq("price", "1")}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAll(record, tt.queries))
		})
	}
}
