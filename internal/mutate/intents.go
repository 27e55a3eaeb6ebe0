package mutate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"shoplist-cli/internal/docstore"
	"shoplist-cli/internal/model"
)

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpSet    Op = "set"
)

// Write is the single remote write an intent issues.
type Write struct {
	Op     Op
	ID     string
	Fields docstore.Fields
}

// Exec issues w against c. It returns the id of the affected document (the
// new id for OpAdd). It does not wait for the resulting snapshot.
func Exec(ctx context.Context, c docstore.Collection, w Write) (string, error) {
	switch w.Op {
	case OpAdd:
		return c.Add(ctx, w.Fields)
	case OpUpdate:
		return w.ID, c.Update(ctx, w.ID, w.Fields)
	case OpDelete:
		return w.ID, c.Delete(ctx, w.ID)
	case OpSet:
		return w.ID, c.Set(ctx, w.ID, w.Fields)
	default:
		return "", fmt.Errorf("unknown write op: %q", w.Op)
	}
}

// Draft is raw form input for an item, exactly as typed.
type Draft struct {
	Name     string
	Quantity string
	Category string
	Icon     string
}

// DraftFromItem seeds an edit form from an existing item.
func DraftFromItem(it model.Item) Draft {
	return Draft{
		Name:     it.Name,
		Quantity: strconv.Itoa(it.Quantity),
		Category: it.Category,
		Icon:     it.Icon,
	}
}

// MaxQuantity is the largest quantity that survives the JSON round trip
// through the collection unchanged.
const MaxQuantity = 1 << 53

type parsedDraft struct {
	name     string
	quantity int
	category string
	icon     string
}

// parseDraft validates d. keepIcon, when non-empty, is accepted as an icon
// even if it is not in model.Icons.
func parseDraft(d Draft, keepIcon string) (parsedDraft, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return parsedDraft{}, ErrNameRequired
	}
	qtyRaw := strings.TrimSpace(d.Quantity)
	if qtyRaw == "" {
		return parsedDraft{}, ErrQuantityRequired
	}
	qty, err := strconv.Atoi(qtyRaw)
	if err != nil || qty <= 0 || qty > MaxQuantity {
		return parsedDraft{}, fmt.Errorf("%w: %q", ErrInvalidQuantity, qtyRaw)
	}
	icon := strings.TrimSpace(d.Icon)
	if icon != "" && icon != keepIcon && !model.IsIcon(icon) {
		return parsedDraft{}, fmt.Errorf("%w: %q", ErrUnknownIcon, icon)
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = model.Uncategorized
	}
	return parsedDraft{name: name, quantity: qty, category: category, icon: icon}, nil
}

// Add validates d and returns the create write for a new, unpurchased item.
func Add(d Draft) (Write, error) {
	p, err := parseDraft(d, "")
	if err != nil {
		return Write{}, err
	}
	it := model.Item{
		Name:      p.name,
		Quantity:  p.quantity,
		Category:  p.category,
		Icon:      p.icon,
		Purchased: false,
	}
	return Write{Op: OpAdd, Fields: it.Fields()}, nil
}

// Toggle flips purchased relative to the state the caller saw.
func Toggle(id string, current bool) (Write, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Write{}, ErrMissingID
	}
	return Write{Op: OpUpdate, ID: id, Fields: docstore.Fields{"purchased": !current}}, nil
}

// Delete remembers it in buf, then returns the delete write.
func Delete(buf *UndoBuffer, it model.Item) (Write, error) {
	if strings.TrimSpace(it.ID) == "" {
		return Write{}, ErrMissingID
	}
	buf.Put(it)
	return Write{Op: OpDelete, ID: it.ID}, nil
}

// Undo returns the write that re-creates the last deleted item at its
// original id and empties buf. ok is false when there is nothing to undo.
func Undo(buf *UndoBuffer) (w Write, ok bool) {
	it, ok := buf.Take()
	if !ok {
		return Write{}, false
	}
	return Write{Op: OpSet, ID: it.ID, Fields: it.Fields()}, true
}

// LocalPatcher receives the optimistic result of an edit.
type LocalPatcher interface {
	PatchLocal(it model.Item)
}

// Edit merges d over original, hands the merged item to local right away and
// returns the update write for the edited fields. Purchased is left alone.
func Edit(local LocalPatcher, original *model.Item, d Draft) (Write, model.Item, error) {
	if original == nil {
		return Write{}, model.Item{}, ErrNotEditing
	}
	// An icon written by another client stays valid as long as it is not
	// changed.
	p, err := parseDraft(d, strings.TrimSpace(original.Icon))
	if err != nil {
		return Write{}, model.Item{}, err
	}
	merged := *original
	merged.Name = p.name
	merged.Quantity = p.quantity
	merged.Category = p.category
	merged.Icon = p.icon

	if local != nil {
		local.PatchLocal(merged)
	}
	return Write{
		Op:     OpUpdate,
		ID:     merged.ID,
		Fields: docstore.Fields{
			"name":     merged.Name,
			"quantity": merged.Quantity,
			"category": merged.Category,
			"icon":     merged.Icon,
		},
	}, merged, nil
}
