package engine

import "github.com/roach88/criteria/internal/ir"

// Normalize prepares buffered events for matching.
//
// Purchase and cart-update events become pseudo-events (one per source
// event) that carry their items under the item prefix key; every other
// event is copied with its dataFields flattened. Pseudo-events come first.
// The input slice and its events are not modified.
func Normalize(events []ir.Event) []ir.Event {
	carts := make([]ir.Event, 0, len(events))
	others := make([]ir.Event, 0, len(events))

	for _, ev := range events {
		switch ir.EventTypeOf(ev) {
		case ir.EventTypePurchase:
			carts = append(carts, cartPseudoEvent(ev, ir.PurchaseItemsKey, false))
		case ir.EventTypeUpdateCart:
			carts = append(carts, cartPseudoEvent(ev, ir.UpdateCartItemsKey, true))
		default:
			others = append(others, flattenDataFields(ev.Clone()))
		}
	}

	return append(carts, others...)
}

// flattenDataFields lifts dataFields entries into obj without replacing
// existing keys, then removes dataFields. obj is modified in place.
func flattenDataFields(obj ir.IRObject) ir.IRObject {
	if obj == nil {
		return ir.IRObject{}
	}
	if fields, ok := obj.GetObject(ir.FieldDataFields); ok {
		for k, v := range fields {
			if _, exists := obj[k]; !exists {
				obj[k] = v
			}
		}
	}
	delete(obj, ir.FieldDataFields)
	return obj
}

// cartPseudoEvent copies the parent event without its items, flattens its
// dataFields, and stores the (flattened) item records under itemsKey.
// Cart updates are re-labelled as custom events named "updateCart".
func cartPseudoEvent(ev ir.Event, itemsKey string, cartUpdate bool) ir.Event {
	pseudo := ev.Clone()
	items, _ := pseudo.GetArray(ir.FieldItems)
	delete(pseudo, ir.FieldItems)
	flattenDataFields(pseudo)

	records := make(ir.IRArray, 0, len(items))
	for _, it := range items {
		obj, ok := it.(ir.IRObject)
		if !ok {
			continue
		}
		records = append(records, flattenDataFields(obj))
	}
	pseudo[itemsKey] = records

	if cartUpdate {
		ir.SetEventType(pseudo, ir.EventTypeCustom)
		pseudo[ir.FieldEventName] = ir.IRString(ir.UpdateCartEventName)
	}
	return pseudo
}
