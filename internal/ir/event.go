package ir

import (
	"fmt"
	"math"
)

// Event is one buffered visitor event: a flat record of field name to
// value, tagged with its event type under FieldEventType.
type Event = IRObject

// Event field names.
const (
	FieldEventType      = "dataType"
	FieldEventTypeAlias = "eventType" // accepted on read only
	FieldEventName      = "eventName"
	FieldEventTimeStamp = "eventTimeStamp"
	FieldCreatedAt      = "createdAt"
	FieldDataFields     = "dataFields"
	FieldItems          = "items"
	FieldTotal          = "total"
	FieldCriteriaID     = "criteriaId"
	FieldToken          = "token"

	FieldCreateNewFields = "createNewFields"
)

// Commerce item field names.
const (
	ItemFieldID          = "id"
	ItemFieldName        = "name"
	ItemFieldPrice       = "price"
	ItemFieldQuantity    = "quantity"
	ItemFieldSKU         = "sku"
	ItemFieldDescription = "description"
	ItemFieldURL         = "url"
	ItemFieldImageURL    = "imageUrl"
	ItemFieldCategories  = "categories"
)

// Event types.
const (
	EventTypeCustom            = "customEvent"
	EventTypePurchase          = "purchase"
	EventTypeUpdateCart        = "updateCart"
	EventTypeUpdateUser        = "user"
	EventTypeTokenRegistration = "tokenRegistration"
)

// Item-level addressing for purchase and cart-update pseudo-events.
// Criteria reference item fields as "<prefix><field>"; the pseudo-event
// keeps its items under the key named by the prefix without the dot.
const (
	PurchaseItemsKey     = "shoppingCartItems"
	PurchaseItemPrefix   = PurchaseItemsKey + "."
	UpdateCartItemsKey   = "updateCart.updatedShoppingCartItems"
	UpdateCartItemPrefix = UpdateCartItemsKey + "."
	UpdateCartEventName  = "updateCart"
)

// EventTypes lists the known event types in declaration order.
var EventTypes = []string{
	EventTypeCustom,
	EventTypePurchase,
	EventTypeUpdateCart,
	EventTypeUpdateUser,
	EventTypeTokenRegistration,
}

// IsKnownEventType reports whether t is one of EventTypes.
func IsKnownEventType(t string) bool {
	for _, known := range EventTypes {
		if known == t {
			return true
		}
	}
	return false
}

// EventTypeOf returns the event's type, reading FieldEventType and then
// the FieldEventTypeAlias spelling. Missing or non-string types yield "".
func EventTypeOf(e Event) string {
	if s, ok := e.GetString(FieldEventType); ok {
		return s
	}
	if s, ok := e.GetString(FieldEventTypeAlias); ok {
		return s
	}
	return ""
}

// SetEventType writes t under whichever type key the event already uses,
// defaulting to FieldEventType.
func SetEventType(e Event, t string) {
	if _, ok := e[FieldEventType]; !ok {
		if _, alias := e[FieldEventTypeAlias]; alias {
			e[FieldEventTypeAlias] = IRString(t)
			return
		}
	}
	e[FieldEventType] = IRString(t)
}

// GetString returns the value under key if it is an IRString.
func (obj IRObject) GetString(key string) (string, bool) {
	s, ok := obj[key].(IRString)
	return string(s), ok
}

// GetObject returns the value under key if it is an IRObject.
func (obj IRObject) GetObject(key string) (IRObject, bool) {
	o, ok := obj[key].(IRObject)
	return o, ok
}

// GetArray returns the value under key if it is an IRArray.
func (obj IRObject) GetArray(key string) (IRArray, bool) {
	a, ok := obj[key].(IRArray)
	return a, ok
}

// Has reports whether key is present (with any value, including IRNull).
func (obj IRObject) Has(key string) bool {
	_, ok := obj[key]
	return ok
}

// Item is a commerce line item carried by purchase and cart-update events.
type Item struct {
	ID          string
	Name        string
	Price       float64
	Quantity    int64
	SKU         string
	Description string
	URL         string
	ImageURL    string
	Categories  []string
	DataFields  IRObject
}

// ToObject renders the item as an event record. Optional fields are
// omitted when empty.
func (it Item) ToObject() IRObject {
	obj := IRObject{
		ItemFieldID:       IRString(it.ID),
		ItemFieldName:     IRString(it.Name),
		ItemFieldPrice:    IRFloat(it.Price),
		ItemFieldQuantity: IRInt(it.Quantity),
	}
	if it.SKU != "" {
		obj[ItemFieldSKU] = IRString(it.SKU)
	}
	if it.Description != "" {
		obj[ItemFieldDescription] = IRString(it.Description)
	}
	if it.URL != "" {
		obj[ItemFieldURL] = IRString(it.URL)
	}
	if it.ImageURL != "" {
		obj[ItemFieldImageURL] = IRString(it.ImageURL)
	}
	if len(it.Categories) > 0 {
		cats := make(IRArray, len(it.Categories))
		for i, c := range it.Categories {
			cats[i] = IRString(c)
		}
		obj[ItemFieldCategories] = cats
	}
	if len(it.DataFields) > 0 {
		obj[FieldDataFields] = it.DataFields.Clone()
	}
	return obj
}

// ItemsToArray renders items as an IRArray of item records.
func ItemsToArray(items []Item) IRArray {
	arr := make(IRArray, len(items))
	for i, it := range items {
		arr[i] = it.ToObject()
	}
	return arr
}

// ItemFromObject reads an item record as produced by Item.ToObject.
// Missing fields stay zero; fields of the wrong type are errors.
func ItemFromObject(obj IRObject) (Item, error) {
	var it Item
	text := []struct {
		key string
		dst *string
	}{
		{ItemFieldID, &it.ID},
		{ItemFieldName, &it.Name},
		{ItemFieldSKU, &it.SKU},
		{ItemFieldDescription, &it.Description},
		{ItemFieldURL, &it.URL},
		{ItemFieldImageURL, &it.ImageURL},
	}
	for _, f := range text {
		v, ok := obj[f.key]
		if !ok {
			continue
		}
		s, ok := v.(IRString)
		if !ok {
			return Item{}, fmt.Errorf("item %s: expected string, got %T", f.key, v)
		}
		*f.dst = string(s)
	}

	switch p := obj[ItemFieldPrice].(type) {
	case nil:
	case IRFloat:
		it.Price = float64(p)
	case IRInt:
		it.Price = float64(p)
	default:
		return Item{}, fmt.Errorf("item %s: expected number, got %T", ItemFieldPrice, p)
	}

	switch q := obj[ItemFieldQuantity].(type) {
	case nil:
	case IRInt:
		it.Quantity = int64(q)
	case IRFloat:
		if float64(q) != math.Trunc(float64(q)) {
			return Item{}, fmt.Errorf("item %s: %v is not a whole number", ItemFieldQuantity, float64(q))
		}
		it.Quantity = int64(q)
	default:
		return Item{}, fmt.Errorf("item %s: expected number, got %T", ItemFieldQuantity, q)
	}

	if v, ok := obj[ItemFieldCategories]; ok {
		arr, ok := v.(IRArray)
		if !ok {
			return Item{}, fmt.Errorf("item %s: expected array, got %T", ItemFieldCategories, v)
		}
		for i, c := range arr {
			s, ok := c.(IRString)
			if !ok {
				return Item{}, fmt.Errorf("item %s[%d]: expected string, got %T", ItemFieldCategories, i, c)
			}
			it.Categories = append(it.Categories, string(s))
		}
	}

	if v, ok := obj[FieldDataFields]; ok {
		df, ok := v.(IRObject)
		if !ok {
			return Item{}, fmt.Errorf("item %s: expected object, got %T", FieldDataFields, v)
		}
		it.DataFields = df.Clone()
	}

	return it, nil
}
