package listview

import (
	"fmt"
	"testing"

	"shoplist-cli/internal/model"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func itemGenerator() *rapid.Generator[model.Item] {
	return rapid.Custom(func(t *rapid.T) model.Item {
		return model.Item{
			Name:      rapid.StringMatching(`[A-Za-z]{1,8}`).Draw(t, "name"),
			Quantity:  rapid.IntRange(1, 12).Draw(t, "quantity"),
			Category:  rapid.SampledFrom([]string{"", "  ", "Dairy", "Bakery", "Produce"}).Draw(t, "category"),
			Purchased: rapid.Bool().Draw(t, "purchased"),
		}
	})
}

// itemsGenerator assigns unique ids so membership checks are unambiguous.
func itemsGenerator() *rapid.Generator[[]model.Item] {
	return rapid.Custom(func(t *rapid.T) []model.Item {
		items := rapid.SliceOfN(itemGenerator(), 0, 30).Draw(t, "items")
		for i := range items {
			items[i].ID = fmt.Sprintf("doc-%d", i)
		}
		return items
	})
}

func TestGroupItems_MembershipProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		groups := GroupItems(items)

		seen := map[string]string{}
		for _, g := range groups {
			for _, it := range g.Items {
				if prev, dup := seen[it.ID]; dup {
					t.Fatalf("item %s in two buckets: %q and %q", it.ID, prev, g.Category)
				}
				seen[it.ID] = g.Category
				if want := it.CategoryOrDefault(); want != g.Category {
					t.Fatalf("item %s in bucket %q, want %q", it.ID, g.Category, want)
				}
			}
		}
		if len(seen) != len(items) {
			t.Fatalf("expected %d grouped items, got %d", len(items), len(seen))
		}
	})
}

func TestGroupItems_UnpurchasedFirstProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		for _, g := range GroupItems(items) {
			sawPurchased := false
			for _, it := range g.Items {
				if it.Purchased {
					sawPurchased = true
					continue
				}
				if sawPurchased {
					t.Fatalf("bucket %q: unpurchased %s after a purchased item", g.Category, it.ID)
				}
			}
		}
	})
}

func TestFilterItems_ActiveAndDonePartitionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		active := FilterItems(items, model.FilterActive)
		done := FilterItems(items, model.FilterDone)

		if len(active)+len(done) != len(items) {
			t.Fatalf("partition sizes %d+%d != %d", len(active), len(done), len(items))
		}
		in := map[string]bool{}
		for _, it := range active {
			in[it.ID] = true
		}
		for _, it := range done {
			if in[it.ID] {
				t.Fatalf("item %s in both active and done", it.ID)
			}
			in[it.ID] = true
		}
		for _, it := range items {
			if !in[it.ID] {
				t.Fatalf("item %s missing from partition", it.ID)
			}
		}
	})
}

func TestCountItems_ActivePlusDoneIsTotalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		c := CountItems(items)
		if c.Active+c.Done != c.Total {
			t.Fatalf("active %d + done %d != total %d", c.Active, c.Done, c.Total)
		}
		if c.Total != len(items) {
			t.Fatalf("total %d != len %d", c.Total, len(items))
		}
	})
}

func TestFilterItems_ActiveYieldsOnlyUnpurchased(t *testing.T) {
	items := []model.Item{
		{ID: "a", Name: "Bread", Purchased: true},
		{ID: "b", Name: "Milk", Purchased: false},
	}
	got := FilterItems(items, model.FilterActive)
	want := []model.Item{items[1]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filtered mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterItems_AllIsIdentity(t *testing.T) {
	items := []model.Item{{ID: "a", Purchased: true}, {ID: "b"}}
	if diff := cmp.Diff(items, FilterItems(items, model.FilterAll)); diff != "" {
		t.Fatalf("all filter changed items (-want +got):\n%s", diff)
	}
}

func TestGroupItems_BucketsInFirstEncounterOrder(t *testing.T) {
	items := []model.Item{
		{ID: "1", Name: "Apples", Category: "Produce", Purchased: true},
		{ID: "2", Name: "Bread", Category: "Bakery"},
		{ID: "3", Name: "Carrots", Category: "Produce"},
		{ID: "4", Name: "Dish soap"},
	}
	got := GroupItems(items)
	want := []Group{
		{Category: "Produce", Items: []model.Item{items[2], items[0]}},
		{Category: "Bakery", Items: []model.Item{items[1]}},
		{Category: model.Uncategorized, Items: []model.Item{items[3]}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupItems_EmptyInput(t *testing.T) {
	got := GroupItems(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil groups, got %#v", got)
	}
}

func TestCounts_Count(t *testing.T) {
	c := Counts{Total: 5, Active: 3, Done: 2}
	if c.Count(model.FilterAll) != 5 || c.Count(model.FilterActive) != 3 || c.Count(model.FilterDone) != 2 {
		t.Fatalf("unexpected Count results for %+v", c)
	}
}
