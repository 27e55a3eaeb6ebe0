package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Uncategorized is the category used when an item has none.
const Uncategorized = "Uncategorized"

// Item is one shopping-list entry as stored in the items collection.
type Item struct {
	// ID is assigned by the collection on create and never changes.
	ID string `json:"id"`

	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category"`
	Icon      string `json:"icon"`
	Purchased bool   `json:"purchased"`
}

// CategoryOrDefault returns the item's category, or Uncategorized when blank.
func (it Item) CategoryOrDefault() string {
	if c := strings.TrimSpace(it.Category); c != "" {
		return c
	}
	return Uncategorized
}

// IconOrDefault returns the item's icon, or the fallback icon when unset.
func (it Item) IconOrDefault() string {
	if strings.TrimSpace(it.Icon) == "" {
		return FallbackIcon
	}
	return it.Icon
}

// Fields returns the document fields for the item (everything except the id).
func (it Item) Fields() map[string]any {
	return map[string]any{
		"name":      it.Name,
		"quantity":  it.Quantity,
		"category":  it.Category,
		"icon":      it.Icon,
		"purchased": it.Purchased,
	}
}

// ItemFromFields decodes a document's fields into an Item with the given id.
// Numbers arriving as float64 (JSON) are accepted as long as they are whole.
func ItemFromFields(id string, fields map[string]any) (Item, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return Item{}, err
	}
	var w struct {
		Name      string  `json:"name"`
		Quantity  float64 `json:"quantity"`
		Category  string  `json:"category"`
		Icon      string  `json:"icon"`
		Purchased bool    `json:"purchased"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return Item{}, fmt.Errorf("decode item %s: %w", id, err)
	}
	if w.Quantity != float64(int(w.Quantity)) {
		return Item{}, fmt.Errorf("decode item %s: quantity %v is not an integer", id, w.Quantity)
	}
	return Item{
		ID:        id,
		Name:      w.Name,
		Quantity:  int(w.Quantity),
		Category:  w.Category,
		Icon:      w.Icon,
		Purchased: w.Purchased,
	}, nil
}

// Filter selects which items a projection shows.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterActive Filter = "active"
	FilterDone   Filter = "done"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterDone}

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "todo":
		return FilterActive, nil
	case "done", "purchased":
		return FilterDone, nil
	default:
		return "", fmt.Errorf("invalid filter: %q (expected all|active|done)", s)
	}
}

// Label is the human-facing filter name.
func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterDone:
		return "Done"
	default:
		return "All"
	}
}
