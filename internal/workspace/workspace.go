package workspace

import (
	"errors"

	"github.com/google/uuid"

	"github.com/choclar/precificador/internal/pricing"
)

var (
	// ErrLastItem is returned when removal would leave the workspace empty.
	ErrLastItem = errors.New("cannot remove the last remaining item")
	// ErrItemNotFound is returned when no item carries the given id.
	ErrItemNotFound = errors.New("item not found")
)

// Workspace is the single live editing state: the item collection being
// edited, the shared adjustments, and the pending snapshot label. It holds no
// derived results; pricing is recomputed from scratch via Calculate on every
// read. Not safe for concurrent use; callers serialize access.
type Workspace struct {
	Items       []pricing.LineItem
	Adjustments pricing.Adjustments
	SaveName    string
}

// New returns a workspace in its initial state: one blank item with
// quantity 1 and zeroed adjustments. The collection never becomes empty.
func New() *Workspace {
	return &Workspace{Items: []pricing.LineItem{blankItem()}}
}

func blankItem() pricing.LineItem {
	return pricing.LineItem{ID: uuid.NewString(), Quantity: 1}
}

// AddItem appends a fresh blank item and returns it.
func (w *Workspace) AddItem() pricing.LineItem {
	item := blankItem()
	w.Items = append(w.Items, item)
	return item
}

// ItemPatch carries optional field updates for a single item. Nil fields are
// left untouched.
type ItemPatch struct {
	Description *string  `json:"description"`
	UnitCost    *float64 `json:"unitCost"`
	Quantity    *int     `json:"quantity"`
}

// UpdateItem mutates the item with the given id in place.
func (w *Workspace) UpdateItem(id string, patch ItemPatch) error {
	for i := range w.Items {
		if w.Items[i].ID != id {
			continue
		}
		if patch.Description != nil {
			w.Items[i].Description = *patch.Description
		}
		if patch.UnitCost != nil {
			w.Items[i].UnitCost = *patch.UnitCost
		}
		if patch.Quantity != nil {
			w.Items[i].Quantity = *patch.Quantity
		}
		return nil
	}
	return ErrItemNotFound
}

// RemoveItem deletes the item with the given id and returns it. Removing the
// sole remaining item is rejected with ErrLastItem and leaves the collection
// unchanged.
func (w *Workspace) RemoveItem(id string) (pricing.LineItem, error) {
	for i := range w.Items {
		if w.Items[i].ID != id {
			continue
		}
		if len(w.Items) == 1 {
			return pricing.LineItem{}, ErrLastItem
		}
		removed := w.Items[i]
		w.Items = append(w.Items[:i], w.Items[i+1:]...)
		return removed, nil
	}
	return pricing.LineItem{}, ErrItemNotFound
}

// Calculate runs the pricing engine over the current state.
func (w *Workspace) Calculate() pricing.Result {
	return pricing.Calculate(w.Items, w.Adjustments)
}

// Reset returns the workspace to its initial state. Called after a
// successful save: saving archives the note and clears the form.
func (w *Workspace) Reset() {
	w.Items = []pricing.LineItem{blankItem()}
	w.Adjustments = pricing.Adjustments{}
	w.SaveName = ""
}

// Load replaces the working state with a deep copy of the given items and
// adjustments, keeping the workspace independent from the caller's slices.
func (w *Workspace) Load(items []pricing.LineItem, adj pricing.Adjustments, name string) {
	copied := make([]pricing.LineItem, len(items))
	copy(copied, items)
	if len(copied) == 0 {
		copied = []pricing.LineItem{blankItem()}
	}
	w.Items = copied
	w.Adjustments = adj
	w.SaveName = name
}
