package mutate

import "shoplist-cli/internal/model"

// UndoBuffer holds the most recently deleted item. It has no expiry of its
// own: an entry stays until the next delete overwrites it or Undo takes it.
type UndoBuffer struct {
	item *model.Item
}

// Put replaces any held entry with it.
func (b *UndoBuffer) Put(it model.Item) {
	cp := it
	b.item = &cp
}

func (b *UndoBuffer) Peek() (model.Item, bool) {
	if b.item == nil {
		return model.Item{}, false
	}
	return *b.item, true
}

// Take returns and clears the held entry.
func (b *UndoBuffer) Take() (model.Item, bool) {
	it, ok := b.Peek()
	b.item = nil
	return it, ok
}

func (b *UndoBuffer) Clear() { b.item = nil }
