package kits

import (
	"context"
	"errors"
	"testing"
)

func validInput() CreateKitInput {
	return CreateKitInput{
		Title:          "Circuit Explorer",
		Description:    "Intro electronics kit",
		Price:          499,
		Category:       CategoryElectronics,
		Difficulty:     DifficultyBeginner,
		AgeGroup:       "10+",
		Components:     []string{"Breadboard", "LEDs", " "},
		EstimatedHours: 6,
		InStock:        true,
		Tags:           []string{"electronics", "starter"},
	}
}

func TestServiceCreateValid(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	kit, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if kit.Currency != "INR" {
		t.Fatalf("expected default currency INR, got %q", kit.Currency)
	}
	if len(kit.Components) != 2 {
		t.Fatalf("expected blank components dropped, got %v", kit.Components)
	}
	if kit.CreatedAt.IsZero() || kit.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestServiceCreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateKitInput)
	}{
		{"empty title", func(in *CreateKitInput) { in.Title = "  " }},
		{"negative price", func(in *CreateKitInput) { in.Price = -1 }},
		{"bad category", func(in *CreateKitInput) { in.Category = "Cooking" }},
		{"bad difficulty", func(in *CreateKitInput) { in.Difficulty = "Expert" }},
		{"negative hours", func(in *CreateKitInput) { in.EstimatedHours = -2 }},
	}

	svc := NewService(NewInMemoryRepository(nil))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			if _, err := svc.Create(context.Background(), input); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceUpdatePartial(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	kit, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	price := 599.0
	stock := false
	updated, err := svc.Update(context.Background(), kit.ID, UpdateKitInput{Price: &price, InStock: &stock})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Price != 599 || updated.InStock {
		t.Fatalf("expected price/stock updated, got %+v", updated)
	}
	if updated.Title != kit.Title {
		t.Fatalf("expected untouched fields preserved, got title %q", updated.Title)
	}
}

func TestServiceUpdateRejectsEmptyTitle(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	kit, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	empty := "  "
	if _, err := svc.Update(context.Background(), kit.ID, UpdateKitInput{Title: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceListFilters(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))

	robotics := validInput()
	robotics.Title = "Line Follower Bot"
	robotics.Category = CategoryRobotics
	if _, err := svc.Create(context.Background(), robotics); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	category := CategoryRobotics
	kits, err := svc.List(context.Background(), ListOptions{Category: &category})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(kits) != 1 || kits[0].Title != "Line Follower Bot" {
		t.Fatalf("expected only the robotics kit, got %+v", kits)
	}

	query := "circuit"
	kits, err = svc.List(context.Background(), ListOptions{Query: &query})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(kits) != 1 || kits[0].Category != CategoryElectronics {
		t.Fatalf("expected search to match the electronics kit, got %+v", kits)
	}
}

func TestServiceGetMissing(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	kit, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), kit.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(context.Background(), kit.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
