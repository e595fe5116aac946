package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"xolvetech/internal/kits"
)

// Repository persists carts keyed by owner ID so they survive restarts.
type Repository interface {
	Get(ctx context.Context, ownerID uuid.UUID) (Cart, error)
	Save(ctx context.Context, cart Cart) error
}

// KitCatalog resolves kit records so the cart can price its contents.
type KitCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (kits.Kit, error)
}

// View is a cart enriched with resolved kits and computed totals.
type View struct {
	Items      []Line  `json:"items"`
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

// Line is a cart item joined with its kit.
type Line struct {
	Kit      kits.Kit `json:"kit"`
	Quantity int      `json:"quantity"`
}

// Service loads, mutates, and persists carts.
type Service struct {
	repo    Repository
	catalog KitCatalog
}

// NewService wires a Service with its repository and kit catalog.
func NewService(repo Repository, catalog KitCatalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Get returns the owner's cart with resolved kits and totals.
func (s *Service) Get(ctx context.Context, ownerID uuid.UUID) (View, error) {
	cart, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	return s.buildView(ctx, cart)
}

// AddItem upserts a kit into the owner's cart, accumulating quantity.
func (s *Service) AddItem(ctx context.Context, ownerID, kitID uuid.UUID, quantity int) (View, error) {
	if quantity < 1 {
		return View{}, &ValidationError{Message: "quantity must be at least 1"}
	}

	// Reject kits that are not in the catalog before touching the cart.
	if _, err := s.catalog.Get(ctx, kitID); err != nil {
		if errors.Is(err, kits.ErrNotFound) {
			return View{}, &ValidationError{Message: "unknown kit"}
		}
		return View{}, fmt.Errorf("lookup kit: %w", err)
	}

	return s.mutate(ctx, ownerID, func(c *Cart) {
		c.Add(kitID, quantity)
	})
}

// SetQuantity replaces the quantity for a kit; zero or less removes it.
func (s *Service) SetQuantity(ctx context.Context, ownerID, kitID uuid.UUID, quantity int) (View, error) {
	return s.mutate(ctx, ownerID, func(c *Cart) {
		c.SetQuantity(kitID, quantity)
	})
}

// RemoveItem drops a kit from the owner's cart.
func (s *Service) RemoveItem(ctx context.Context, ownerID, kitID uuid.UUID) (View, error) {
	return s.mutate(ctx, ownerID, func(c *Cart) {
		c.Remove(kitID)
	})
}

// Clear empties the owner's cart.
func (s *Service) Clear(ctx context.Context, ownerID uuid.UUID) (View, error) {
	return s.mutate(ctx, ownerID, func(c *Cart) {
		c.Clear()
	})
}

func (s *Service) mutate(ctx context.Context, ownerID uuid.UUID, apply func(*Cart)) (View, error) {
	cart, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}

	cart.OwnerID = ownerID
	apply(&cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}

	return s.buildView(ctx, cart)
}

func (s *Service) buildView(ctx context.Context, cart Cart) (View, error) {
	view := View{Items: make([]Line, 0, len(cart.Items))}
	prices := make(map[uuid.UUID]float64, len(cart.Items))

	for _, item := range cart.Items {
		kit, err := s.catalog.Get(ctx, item.KitID)
		if err != nil {
			if errors.Is(err, kits.ErrNotFound) {
				// Kit removed from the catalog after it was carted; skip it.
				continue
			}
			return View{}, fmt.Errorf("lookup kit: %w", err)
		}
		prices[item.KitID] = kit.Price
		view.Items = append(view.Items, Line{Kit: kit, Quantity: item.Quantity})
		view.TotalItems += item.Quantity
	}

	view.TotalPrice = cart.TotalPrice(prices)
	return view, nil
}
