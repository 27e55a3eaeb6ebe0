package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrQuantityRequired = errors.New("quantity is required")
	ErrInvalidQuantity  = errors.New("quantity must be a positive whole number")
	ErrUnknownIcon      = errors.New("unknown icon")
	ErrNotEditing       = errors.New("no item is being edited")
	ErrMissingID        = errors.New("missing item id")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
