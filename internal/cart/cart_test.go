package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestCartAddAccumulates(t *testing.T) {
	kitID := uuid.New()
	c := Cart{}

	c.Add(kitID, 2)
	c.Add(kitID, 3)

	if len(c.Items) != 1 {
		t.Fatalf("expected a single entry per kit, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", c.Items[0].Quantity)
	}
}

func TestCartAddClampsQuantity(t *testing.T) {
	c := Cart{}
	c.Add(uuid.New(), 0)

	if len(c.Items) != 1 || c.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %+v", c.Items)
	}
}

func TestCartSetQuantityZeroRemoves(t *testing.T) {
	kitID := uuid.New()
	c := Cart{}
	c.Add(kitID, 4)

	c.SetQuantity(kitID, 0)

	if len(c.Items) != 0 {
		t.Fatalf("expected entry removed, got %+v", c.Items)
	}
}

func TestCartSetQuantityReplaces(t *testing.T) {
	kitID := uuid.New()
	c := Cart{}
	c.Add(kitID, 4)

	c.SetQuantity(kitID, 2)

	if c.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", c.Items[0].Quantity)
	}
}

func TestCartRemoveAbsentIsNoop(t *testing.T) {
	c := Cart{}
	c.Add(uuid.New(), 1)

	c.Remove(uuid.New())

	if len(c.Items) != 1 {
		t.Fatalf("expected cart untouched, got %+v", c.Items)
	}
}

func TestCartPreservesInsertionOrder(t *testing.T) {
	first, second, third := uuid.New(), uuid.New(), uuid.New()
	c := Cart{}
	c.Add(first, 1)
	c.Add(second, 1)
	c.Add(third, 1)
	c.Add(second, 1)

	got := []uuid.UUID{c.Items[0].KitID, c.Items[1].KitID, c.Items[2].KitID}
	want := []uuid.UUID{first, second, third}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestCartTotals(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	c := Cart{}
	c.Add(a, 2)
	c.Add(b, 3)

	if c.TotalItems() != 5 {
		t.Fatalf("expected 5 total items, got %d", c.TotalItems())
	}

	prices := map[uuid.UUID]float64{a: 100, b: 50}
	if total := c.TotalPrice(prices); total != 350 {
		t.Fatalf("expected total price 350, got %v", total)
	}
}

func TestCartClear(t *testing.T) {
	c := Cart{}
	c.Add(uuid.New(), 2)
	c.Clear()

	if c.TotalItems() != 0 {
		t.Fatalf("expected empty cart, got %+v", c.Items)
	}
}
