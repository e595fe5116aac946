package cart

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a cart entry cannot be located.
var ErrNotFound = errors.New("cart item not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ValidationError wraps a validation message so callers can distinguish
// client errors from internal failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Item pairs a kit with the quantity a shopper wants. A cart holds at
// most one Item per kit.
type Item struct {
	KitID    uuid.UUID `json:"kitId"`
	Quantity int       `json:"quantity"`
}

// Cart is an ordered collection of items owned by a single shopper.
// All mutations are synchronous and in-memory; persistence is the
// Service's concern.
type Cart struct {
	OwnerID uuid.UUID `json:"ownerId"`
	Items   []Item    `json:"items"`
}

// Add upserts a kit into the cart. Adding a kit that is already present
// accumulates its quantity instead of duplicating the entry.
func (c *Cart) Add(kitID uuid.UUID, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].KitID == kitID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, Item{KitID: kitID, Quantity: quantity})
}

// Remove drops a kit from the cart. Removing an absent kit is a no-op.
func (c *Cart) Remove(kitID uuid.UUID) {
	for i := range c.Items {
		if c.Items[i].KitID == kitID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the quantity for a kit. A quantity of zero or
// less removes the entry.
func (c *Cart) SetQuantity(kitID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.Remove(kitID)
		return
	}
	for i := range c.Items {
		if c.Items[i].KitID == kitID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// TotalItems returns the sum of quantities across all entries.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums price×quantity over all entries using the supplied
// price table. Entries without a known price contribute nothing.
func (c *Cart) TotalPrice(prices map[uuid.UUID]float64) float64 {
	total := 0.0
	for _, item := range c.Items {
		total += prices[item.KitID] * float64(item.Quantity)
	}
	return total
}
