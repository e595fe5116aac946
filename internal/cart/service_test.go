package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"xolvetech/internal/kits"
)

type catalogStub struct {
	kits map[uuid.UUID]kits.Kit
}

func (c *catalogStub) Get(_ context.Context, id uuid.UUID) (kits.Kit, error) {
	kit, ok := c.kits[id]
	if !ok {
		return kits.Kit{}, kits.ErrNotFound
	}
	return kit, nil
}

func newCatalog(entries ...kits.Kit) *catalogStub {
	stub := &catalogStub{kits: make(map[uuid.UUID]kits.Kit)}
	for _, kit := range entries {
		stub.kits[kit.ID] = kit
	}
	return stub
}

func TestServiceAddItemPersistsAndPrices(t *testing.T) {
	kit := kits.Kit{ID: uuid.New(), Title: "Robot Arm", Price: 1200}
	repo := NewInMemoryRepository()
	svc := NewService(repo, newCatalog(kit))
	owner := uuid.New()

	view, err := svc.AddItem(context.Background(), owner, kit.ID, 2)
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if view.TotalItems != 2 || view.TotalPrice != 2400 {
		t.Fatalf("unexpected totals: %+v", view)
	}

	// A fresh service over the same repository must see the saved cart.
	view, err = NewService(repo, newCatalog(kit)).Get(context.Background(), owner)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("expected persisted cart, got %+v", view)
	}
}

func TestServiceAddItemUnknownKit(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), newCatalog())

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceAddItemRejectsZeroQuantity(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), newCatalog())

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New(), 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceSetQuantityZeroRemoves(t *testing.T) {
	kit := kits.Kit{ID: uuid.New(), Price: 100}
	svc := NewService(NewInMemoryRepository(), newCatalog(kit))
	owner := uuid.New()

	if _, err := svc.AddItem(context.Background(), owner, kit.ID, 3); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	view, err := svc.SetQuantity(context.Background(), owner, kit.ID, 0)
	if err != nil {
		t.Fatalf("SetQuantity returned error: %v", err)
	}
	if len(view.Items) != 0 || view.TotalPrice != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestServiceClear(t *testing.T) {
	kit := kits.Kit{ID: uuid.New(), Price: 100}
	svc := NewService(NewInMemoryRepository(), newCatalog(kit))
	owner := uuid.New()

	if _, err := svc.AddItem(context.Background(), owner, kit.ID, 1); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	view, err := svc.Clear(context.Background(), owner)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if view.TotalItems != 0 {
		t.Fatalf("expected cleared cart, got %+v", view)
	}
}

func TestServiceViewSkipsDelistedKits(t *testing.T) {
	kit := kits.Kit{ID: uuid.New(), Price: 100}
	catalog := newCatalog(kit)
	svc := NewService(NewInMemoryRepository(), catalog)
	owner := uuid.New()

	if _, err := svc.AddItem(context.Background(), owner, kit.ID, 2); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	delete(catalog.kits, kit.ID)

	view, err := svc.Get(context.Background(), owner)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(view.Items) != 0 || view.TotalPrice != 0 {
		t.Fatalf("expected delisted kit skipped, got %+v", view)
	}
}
