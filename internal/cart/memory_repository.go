package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository keeps carts in a process-local map, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]Cart
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[uuid.UUID]Cart)}
}

// Get returns the owner's cart, or an empty cart if none has been saved.
func (r *InMemoryRepository) Get(_ context.Context, ownerID uuid.UUID) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.data[ownerID]
	if !ok {
		return Cart{OwnerID: ownerID}, nil
	}

	copied := Cart{OwnerID: cart.OwnerID, Items: make([]Item, len(cart.Items))}
	copy(copied.Items, cart.Items)
	return copied, nil
}

// Save replaces the owner's cart.
func (r *InMemoryRepository) Save(_ context.Context, cart Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := Cart{OwnerID: cart.OwnerID, Items: make([]Item, len(cart.Items))}
	copy(copied.Items, cart.Items)
	r.data[cart.OwnerID] = copied
	return nil
}
