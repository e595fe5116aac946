package kits

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores kits in an in-process map, ideal for local development or tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	data  map[uuid.UUID]Kit
	order []uuid.UUID
}

// NewInMemoryRepository constructs a repository seeded with optional initial kits.
func NewInMemoryRepository(initial []Kit) *InMemoryRepository {
	data := make(map[uuid.UUID]Kit)
	order := make([]uuid.UUID, 0, len(initial))
	for _, kit := range initial {
		data[kit.ID] = kit
		order = append(order, kit.ID)
	}
	return &InMemoryRepository{data: data, order: order}
}

// Create stores a new kit.
func (r *InMemoryRepository) Create(_ context.Context, kit Kit) (Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[kit.ID] = kit
	r.order = append(r.order, kit.ID)
	return kit, nil
}

// Get returns a kit by ID.
func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Kit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kit, ok := r.data[id]
	if !ok {
		return Kit{}, ErrNotFound
	}
	return kit, nil
}

// List returns kits matching the filters in insertion order.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]Kit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kits := make([]Kit, 0, len(r.order))
	for _, id := range r.order {
		kit, ok := r.data[id]
		if !ok {
			continue
		}
		if !matches(kit, opts) {
			continue
		}
		kits = append(kits, kit)
		if opts.Limit != nil && len(kits) >= *opts.Limit {
			break
		}
	}
	return kits, nil
}

// Update replaces an existing kit.
func (r *InMemoryRepository) Update(_ context.Context, kit Kit) (Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[kit.ID]; !ok {
		return Kit{}, ErrNotFound
	}
	r.data[kit.ID] = kit
	return kit, nil
}

// Delete removes a kit by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func matches(kit Kit, opts ListOptions) bool {
	if opts.Category != nil && kit.Category != *opts.Category {
		return false
	}
	if opts.Difficulty != nil && kit.Difficulty != *opts.Difficulty {
		return false
	}
	if opts.InStock != nil && kit.InStock != *opts.InStock {
		return false
	}
	if opts.Query != nil {
		query := strings.ToLower(strings.TrimSpace(*opts.Query))
		if query != "" {
			title := strings.ToLower(kit.Title)
			desc := strings.ToLower(kit.Description)
			if !strings.Contains(title, query) && !strings.Contains(desc, query) {
				return false
			}
		}
	}
	return true
}
