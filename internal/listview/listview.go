// Package listview derives what the shopping list shows from the current items.
// Everything here is pure and recomputed from scratch on every change; lists
// are household-sized so there is nothing to cache.
package listview

import (
	"sort"

	"shoplist-cli/internal/model"
)

// FilterItems returns the items visible under f, preserving order.
// Unknown filters behave like FilterAll.
func FilterItems(items []model.Item, f model.Filter) []model.Item {
	if f != model.FilterActive && f != model.FilterDone {
		return items
	}
	wantDone := f == model.FilterDone
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.Purchased == wantDone {
			out = append(out, it)
		}
	}
	return out
}

// Group is one category bucket.
type Group struct {
	Category string       `json:"category"`
	Items    []model.Item `json:"items"`
}

// GroupItems buckets items by category. Buckets appear in the order their
// first item appears in items; within a bucket unpurchased items come first
// and the input order is otherwise kept.
func GroupItems(items []model.Item) []Group {
	groups := []Group{}
	idx := map[string]int{}
	for _, it := range items {
		cat := it.CategoryOrDefault()
		i, ok := idx[cat]
		if !ok {
			i = len(groups)
			idx[cat] = i
			groups = append(groups, Group{Category: cat})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	for i := range groups {
		g := groups[i].Items
		sort.SliceStable(g, func(a, b int) bool {
			return !g[a].Purchased && g[b].Purchased
		})
	}
	return groups
}

type Counts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Done   int `json:"done"`
}

func CountItems(items []model.Item) Counts {
	c := Counts{Total: len(items)}
	for _, it := range items {
		if it.Purchased {
			c.Done++
		} else {
			c.Active++
		}
	}
	return c
}

// Count returns the number of items matching f.
func (c Counts) Count(f model.Filter) int {
	switch f {
	case model.FilterActive:
		return c.Active
	case model.FilterDone:
		return c.Done
	default:
		return c.Total
	}
}
